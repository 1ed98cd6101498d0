package config

import (
	"fmt"
	"sort"
)

// Keys lists the configuration keys in display order.
var Keys = []string{"display", "mode", "poll_interval", "log_level", "format", "color"}

// Explain returns the effective value of a top-level key and where it came
// from.
func Explain(res *LoadResult, key string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if key == "" {
		return nil, Source{}, fmt.Errorf("key is empty")
	}

	value, err := lookupValue(res.Config, key)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[key]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, key string) (any, error) {
	switch key {
	case "display":
		return cfg.Display, nil
	case "mode":
		return string(cfg.Mode), nil
	case "poll_interval":
		return cfg.Interval().String(), nil
	case "log_level":
		return cfg.LogLevel, nil
	case "format":
		return string(cfg.Format), nil
	case "color":
		return string(cfg.Color), nil
	default:
		known := append([]string(nil), Keys...)
		sort.Strings(known)
		return nil, fmt.Errorf("unknown key %q (known: %v)", key, known)
	}
}
