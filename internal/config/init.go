package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Init writes a starter configuration file with the defaults spelled out,
// so projects can commit and tweak it.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		SourceDir: DefaultSourceDir,
		BuildDir:  DefaultBuildDir,
		Builder:   DefaultBuilder,
		Opts:      append([]string(nil), DefaultOpts...),
		Watch:     []string{DefaultSourceDir},
		Ignore:    append([]string(nil), DefaultIgnore...),
		Live: LiveConfig{
			Host: DefaultLiveHost,
			Port: DefaultLivePort,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath,
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: DefaultNATSURL,
			Subject: DefaultEventSubject,
		},
		Daemon: DaemonConfig{
			Target:   DefaultDaemonTarget,
			Interval: DefaultDaemonInterval,
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("marshal example config: %w", err)
	}

	header := "# docmake configuration\n# Targets: help, html, test, spelling, linkcheck, livehtml, livetest, or any sphinx-build -M mode.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", configPath, err)
	}

	return nil
}
