package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/azeddinshr/realtime-arabic-voice-agent/internal/log"
)

// GetCurrentWeatherName is the invocable name of the weather tool.
const GetCurrentWeatherName = "get_current_weather"

// DefaultWeatherEndpoint is the WeatherAPI.com base URL.
const DefaultWeatherEndpoint = "https://api.weatherapi.com/v1"

// weatherTimeout bounds the current-conditions call.
const weatherTimeout = 5 * time.Second

// weatherApology is interpolated with the originally requested city name.
const weatherApology = "عذراً، لم أتمكن من الحصول على الطقس لـ %s"

const getCurrentWeatherDescription = "Get the current weather for a city using WeatherAPI.com. " +
	"Use this when the user asks about current weather, temperature, or conditions, " +
	"or the question contains words like: طقس، حرارة، أمطار، جو. " +
	"Do NOT use for forecasts (not supported), historical weather, or general information about cities. " +
	"It is strongly recommended to pass the city name in English for reliable geocoding, " +
	"e.g. \"الرباط\" -> \"Rabat\", \"الدار البيضاء\" -> \"Casablanca\". " +
	"Example queries: \"ما هو الطقس في الرباط؟\", \"What's the weather like in Casablanca?\"."

// GetCurrentWeatherInput is the single-argument input of the tool.
type GetCurrentWeatherInput struct {
	City string `json:"city" jsonschema:"name of the city, preferably in English (e.g. Rabat, Casablanca, Beni Mellal)"`
}

// weatherResponse mirrors the fields of the WeatherAPI current.json
// payload that the reply template uses.
type weatherResponse struct {
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64 `json:"temp_c"`
		FeelslikeC float64 `json:"feelslike_c"`
		Humidity   float64 `json:"humidity"`
		WindKph    float64 `json:"wind_kph"`
		Condition  struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// WeatherConfig configures the weather tool's upstream call.
type WeatherConfig struct {
	// Endpoint is the API base URL. Defaults to DefaultWeatherEndpoint.
	Endpoint string

	// APIKey is the WeatherAPI key from the environment. An empty key is
	// passed through: the upstream rejects the call and the tool degrades.
	APIKey string
}

// NewWeatherTool builds the get_current_weather tool.
func NewWeatherTool(cfg WeatherConfig, logger log.Logger) (*Tool, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultWeatherEndpoint
	}

	client := &http.Client{Timeout: weatherTimeout}

	handler := func(ctx context.Context, input GetCurrentWeatherInput) Outcome {
		apology := fmt.Sprintf(weatherApology, input.City)

		q := url.Values{}
		q.Set("key", cfg.APIKey)
		q.Set("q", input.City)
		q.Set("aqi", "no")
		reqURL := cfg.Endpoint + "/current.json?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return Upstream(apology, fmt.Errorf("building weather request: %w", err))
		}

		resp, err := client.Do(req)
		if err != nil {
			return Upstream(apology, fmt.Errorf("weather request: %w", err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return Upstream(apology, fmt.Errorf("weather api returned status %d", resp.StatusCode))
		}

		var data weatherResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return Malformed(apology, fmt.Errorf("decoding weather response: %w", err))
		}
		if data.Location.Name == "" || data.Current.Condition.Text == "" {
			return Malformed(apology, fmt.Errorf("weather response missing expected fields"))
		}

		return OK(formatWeather(data))
	}

	return New(GetCurrentWeatherName, getCurrentWeatherDescription, "عذراً، لم أتمكن من الحصول على الطقس.", handler)
}

// formatWeather renders current conditions in the fixed Arabic template.
func formatWeather(data weatherResponse) string {
	return fmt.Sprintf(`الطقس في %s, %s:
- درجة الحرارة: %s°C
- الإحساس بالحرارة: %s°C
- الرطوبة: %s%%
- الحالة: %s
- سرعة الرياح: %s كم/ساعة`,
		data.Location.Name,
		data.Location.Country,
		formatNumber(data.Current.TempC),
		formatNumber(data.Current.FeelslikeC),
		formatNumber(data.Current.Humidity),
		data.Current.Condition.Text,
		formatNumber(data.Current.WindKph),
	)
}

// formatNumber renders an upstream JSON number without trailing zeros,
// so 21.5 stays "21.5" and 60 stays "60".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
