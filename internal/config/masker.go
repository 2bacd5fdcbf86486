package config

import (
	"reflect"

	"github.com/rs/zerolog/log"
)

// LogSummary logs the configuration once at startup. Fields tagged
// masked:"true" keep only their first and last character.
func LogSummary(cfg *Config) {
	v := reflect.ValueOf(cfg).Elem()
	log.Info().Interface("config", maskStructFields(v, v.Type())).Msg("Configuration loaded")
}

func maskStructFields(v reflect.Value, t reflect.Type) map[string]interface{} {
	result := make(map[string]interface{}, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		switch field.Kind() {
		case reflect.Struct:
			result[fieldType.Name] = maskStructFields(field, field.Type())
		case reflect.String:
			if fieldType.Tag.Get("masked") == "true" {
				result[fieldType.Name] = maskSensitiveData(field.String())
			} else {
				result[fieldType.Name] = field.String()
			}
		default:
			result[fieldType.Name] = field.Interface()
		}
	}
	return result
}

func maskSensitiveData(data string) string {
	if len(data) <= 2 {
		return "****"
	}
	return string(data[0]) + "****" + string(data[len(data)-1])
}
