package envutil

import (
	"fmt"
	"os"
)

func RequireEnv(name string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	panic(fmt.Sprintf("missing required environment variable %v", name))
}

func GetEnv(name string) string {
	return os.Getenv(name)
}

func GetEnvOrNil(name string) *string {
	if value, ok := os.LookupEnv(name); ok {
		return &value
	}
	return nil
}

func GetEnvOrDefault(name, defaultValue string) string {
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	return defaultValue
}

func RequireEnvParsed[T any](name string, parse func(string) (T, error)) T {
	value, err := parse(RequireEnv(name))
	if err != nil {
		panic(fmt.Sprintf("invalid environment variable %v: %v", name, err))
	}
	return value
}

func GetEnvParsedOrDefault[T any](name string, parse func(string) (T, error), defaultValue T) T {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		panic(fmt.Sprintf("invalid environment variable %v: %v", name, err))
	}
	return value
}

func GetEnvParsedOrNil[T any](name string, parse func(string) (T, error)) *T {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return nil
	}
	value, err := parse(raw)
	if err != nil {
		panic(fmt.Sprintf("invalid environment variable %v: %v", name, err))
	}
	return &value
}
