/*
 * Cadence - The resource-oriented smart contract programming language
 *
 * Copyright Flow Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pass

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Config contains the configuration shared by all pass managers and adaptors of a pipeline.
type Config struct {
	Tracer
	// Logger receives debug messages about pass manager runs.
	// Logging is disabled if it is nil
	Logger *zerolog.Logger
	// VerifyStructure enables the verification of the loop structure after each loop pass
	VerifyStructure bool
	// TimeProfile, if set, collects the time spent in each pass
	TimeProfile *TimeProfile
	// DisabledPasses are the names of optional passes which are never run
	DisabledPasses []string
	// BisectLimit, if set, is the number of optional pass executions after which
	// all further optional pass executions are skipped
	BisectLimit *int

	instrumentation *Instrumentation
	bisectCount     int
}

func NewConfig() *Config {
	return &Config{}
}

func (c *Config) WithLogger(logger *zerolog.Logger) *Config {
	c.Logger = logger
	return c
}

func (c *Config) WithStructureVerification() *Config {
	c.VerifyStructure = true
	return c
}

func (c *Config) WithTimeProfile(profile *TimeProfile) *Config {
	c.TimeProfile = profile
	return c
}

func (c *Config) WithDisabledPasses(names ...string) *Config {
	c.DisabledPasses = append(c.DisabledPasses, names...)
	return c
}

func (c *Config) WithBisectLimit(limit int) *Config {
	c.BisectLimit = &limit
	return c
}

// GetLogger returns the configured logger, or a disabled logger.
func (c *Config) GetLogger() zerolog.Logger {
	if c == nil || c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

// Instrumentation returns the instrumentation of the pipeline.
// It is created on first use, with callbacks for the disabled passes and the bisect limit.
func (c *Config) Instrumentation() *Instrumentation {
	if c.instrumentation != nil {
		return c.instrumentation
	}

	c.instrumentation = &Instrumentation{}

	if len(c.DisabledPasses) > 0 {
		disabled := make(map[string]struct{}, len(c.DisabledPasses))
		for _, name := range c.DisabledPasses {
			disabled[name] = struct{}{}
		}

		c.instrumentation.RegisterShouldRunOptionalPassCallback(
			func(passName string, _ Named) bool {
				_, ok := disabled[passName]
				return !ok
			},
		)
	}

	if c.BisectLimit != nil {
		limit := *c.BisectLimit

		c.instrumentation.RegisterShouldRunOptionalPassCallback(
			func(passName string, unit Named) bool {
				c.bisectCount++
				run := c.bisectCount <= limit

				logger := c.GetLogger()
				logger.Info().
					Int("number", c.bisectCount).
					Str("pass", passName).
					Str("unit", unit.Name()).
					Bool("run", run).
					Msg("Bisecting pass")

				return run
			},
		)
	}

	return c.instrumentation
}

func ensureConfig(config *Config) *Config {
	if config == nil {
		return NewConfig()
	}
	return config
}

type configFile struct {
	LogLevel        string   `yaml:"logLevel"`
	VerifyStructure bool     `yaml:"verifyStructure"`
	Tracing         bool     `yaml:"tracing"`
	TimeProfile     bool     `yaml:"timeProfile"`
	DisabledPasses  []string `yaml:"disabledPasses"`
	BisectLimit     *int     `yaml:"bisectLimit"`
}

// LoadConfig reads a YAML pipeline configuration.
// Log messages are written to the output, and traces are logged at debug level.
func LoadConfig(data []byte, output io.Writer) (*Config, error) {
	var file configFile
	err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pass configuration: %w", err)
	}

	level := zerolog.InfoLevel
	if file.LogLevel != "" {
		level, err = zerolog.ParseLevel(file.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", file.LogLevel, err)
		}
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: output}).
		Level(level).
		With().
		Timestamp().
		Logger()

	config := NewConfig().WithLogger(&logger)
	config.VerifyStructure = file.VerifyStructure
	config.DisabledPasses = file.DisabledPasses
	config.BisectLimit = file.BisectLimit

	if file.TimeProfile {
		config.TimeProfile = NewTimeProfile()
	}

	if file.Tracing {
		config.TracingEnabled = true
		config.OnRecordTrace = func(operationName string, duration time.Duration, attrs []attribute.KeyValue) {
			event := logger.Debug().
				Str("operation", operationName).
				Dur("duration", duration)
			for _, attr := range attrs {
				event = event.Str(string(attr.Key), attr.Value.Emit())
			}
			event.Msg("Recorded trace")
		}
	}

	return config, nil
}
