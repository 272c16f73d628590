package utils

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"abyss-screener/pkg/logger"
)

// ContainsString checks if a slice of strings contains a specific string.
func ContainsString(slice []string, str string) bool {
	for _, item := range slice {
		if item == str {
			return true
		}
	}
	return false
}

func CleanToValidUTF8(s string) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		buf.WriteRune(r)
		i += size
	}
	return buf.String()
}

func SafeText(text string) string {
	return CleanToValidUTF8(html.UnescapeString(text))
}

// GoSafe runs the given function in a new goroutine and recovers from any panic.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Panic Recovered] %v", r)
			}
		}()
		fn()
	}()
}

func ToPointer[T any](value T) *T {
	return &value
}

// ShouldContinue reports whether the context is still live, logging the caller
// when it is not. Fan-out loops use it to bail out early.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// ShouldStopChan reports whether the stop channel has been closed. The
// loading animations poll it between frames.
func ShouldStopChan(stop <-chan struct{}, log *logger.Logger) bool {
	select {
	case <-stop:
		log.Debug("Stop signal received")
		return true
	default:
		return false
	}
}

// PrettyKey turns a snake_case key into a title cased label for display.
func PrettyKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		parts[i] = CapitalizeSentence(part)
	}
	return strings.Join(parts, " ")
}

func CapitalizeSentence(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	runes := []rune(input)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func FormatPercentage(value float64) string {
	return fmt.Sprintf("%+.1f%%", value)
}
