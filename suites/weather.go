package suites

// Weather database schema, keyed by lowercase location then date
// (%Y-%m-%d):
//
//	high: float
//	low: float
//	conditions: str
//
// HistoricWeather is keyed by lowercase location then lowercase month
// name, holding min_temp, max_temp, record_min_temp, record_max_temp,
// avg_rainfall, and snow_days.

import (
	"strings"
	"time"

	"github.com/AltairaLabs/ReplayKit/tools"
)

// WeatherSuite builds the weather lookup tools. None of them touch
// account state or require a session.
func WeatherSuite() Suite {
	return Suite{
		Name:        "Weather",
		Description: "Get weather information of a location.",
		Tools: []tools.Tool{
			newCurrentWeather(),
			newForecastWeather(),
			newHistoricWeather(),
		},
	}
}

func locationRecord(env *tools.Env, params map[string]any) (string, map[string]any, error) {
	location, _ := strParam(params, "location")
	location = strings.TrimSpace(strings.ToLower(location))
	record, ok := env.Database.Record(location)
	if !ok {
		return location, nil, tools.APIErrorf("Location %s not found in database", location)
	}
	return location, record, nil
}

func dayWeather(weather map[string]any, location string, day time.Time) (any, error) {
	date := day.Format(dateLayout)
	report, ok := weather[date]
	if !ok {
		return nil, tools.APIErrorf("Weather data for %s missing for date %s", location, date)
	}
	return tools.DeepCopy(report), nil
}

func newCurrentWeather() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "CurrentWeather",
			Suite:       "Weather",
			Description: "Get the current weather of a location.",
			Parameters: []tools.ParamSpec{
				{Name: "location", Type: "string", Description: "The location to get the weather of.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "weather", Type: "object", Description: "The weather of the location."}},
			Database: WeatherDB,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			location, weather, err := locationRecord(env, params)
			if err != nil {
				return nil, err
			}
			report, err := dayWeather(weather, location, env.Now)
			if err != nil {
				return nil, err
			}
			return map[string]any{"weather": report}, nil
		},
	}
}

func newForecastWeather() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "ForecastWeather",
			Suite:       "Weather",
			Description: "Get the 3-day forecast weather of a location.",
			Parameters: []tools.ParamSpec{
				{Name: "location", Type: "string", Description: "The location to get the weather of.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "forecast", Type: "array", Description: "list containing weather information for the next 3 days."}},
			Database: WeatherDB,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			location, weather, err := locationRecord(env, params)
			if err != nil {
				return nil, err
			}
			forecast := make([]any, 0, 3)
			for i := 1; i <= 3; i++ {
				report, err := dayWeather(weather, location, env.Now.AddDate(0, 0, i))
				if err != nil {
					return nil, err
				}
				forecast = append(forecast, report)
			}
			return map[string]any{"forecast": forecast}, nil
		},
	}
}

func newHistoricWeather() tools.Tool {
	return &suiteTool{
		def: &tools.Definition{
			Name:        "HistoricWeather",
			Suite:       "Weather",
			Description: "Get historic weather information of a location by month.",
			Parameters: []tools.ParamSpec{
				{Name: "location", Type: "string", Description: "The location to get the weather of.", Required: true},
				{Name: "month", Type: "string", Description: "The month to get weather of as a full name.", Required: true},
			},
			Output:   []tools.FieldSpec{{Name: "weather", Type: "object", Description: "Historic weather of location for month."}},
			Database: HistoricWeatherDB,
		},
		exec: func(env *tools.Env, params map[string]any) (any, error) {
			location, months, err := locationRecord(env, params)
			if err != nil {
				return nil, err
			}
			month, _ := strParam(params, "month")
			month = strings.ToLower(month)
			report, ok := months[month]
			if !ok {
				return nil, tools.APIErrorf("Historic weather data for %s missing for month %s", location, month)
			}
			return map[string]any{"weather": tools.DeepCopy(report)}, nil
		},
	}
}
