package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/batch"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	configDir        = "./config"
	engineSchemaName = "backtest-engine-v1-config.json"
	engineSampleName = "backtest-engine-v1-config.yaml"
	batchSchemaName  = "backtest-batch.json"
	batchSampleName  = "backtest-batch.yaml"
	strategiesDir    = "strategies"
	indicatorsDir    = "indicators"
)

func main() {
	if err := generate(configDir); err != nil {
		log.Fatal(err)
	}
}

// generate writes every schema into dir and the sample files that do not exist yet.
func generate(dir string) error {
	config := engine.EmptyConfig()

	engineSchema, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate engine schema: %w", err)
	}

	if err := writeSchemaPair(dir, engineSchemaName, engineSampleName, engineSchema, config); err != nil {
		return err
	}

	batchSchema, err := batch.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate batch schema: %w", err)
	}

	if err := writeSchemaPair(dir, batchSchemaName, batchSampleName, batchSchema, batch.Sample()); err != nil {
		return err
	}

	for _, strategyType := range strategy.Types() {
		schema, err := strategy.Schema(strategyType)
		if err != nil {
			return fmt.Errorf("failed to generate %s schema: %w", strategyType, err)
		}

		path := filepath.Join(dir, strategiesDir, string(strategyType)+".json")
		if err := generateSchemaFile(schema, path); err != nil {
			return err
		}
	}

	registry := indicator.NewDefaultRegistry()
	for _, indicatorType := range registry.List() {
		schema, err := registry.Schema(indicatorType)
		if err != nil {
			return fmt.Errorf("failed to generate %s schema: %w", indicatorType, err)
		}

		path := filepath.Join(dir, indicatorsDir, string(indicatorType)+".json")
		if err := generateSchemaFile(schema, path); err != nil {
			return err
		}
	}

	log.Printf("Schemas successfully generated in %s", dir)

	return nil
}

func writeSchemaPair(dir, schemaName, sampleName, schema string, sample any) error {
	if err := validateSchemaName(schemaName); err != nil {
		return err
	}

	schemaPath := filepath.Join(dir, schemaName)
	samplePath := filepath.Join(dir, sampleName)

	if err := validatePaths(schemaPath, samplePath); err != nil {
		return err
	}

	if err := generateSchemaFile(schema, schemaPath); err != nil {
		return err
	}

	return generateSampleConfig(sample, samplePath, schemaName)
}

// generateSchemaFile writes schema to path, creating parent directories.
func generateSchemaFile(schema string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(schema), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes sample as YAML unless path already exists.
func generateSampleConfig(sample any, path string, schemaName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat sample config: %w", err)
	}

	yamlBytes, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", path)

	return nil
}

func validatePaths(schemaPath, samplePath string) error {
	var errs []error

	if schemaPath == "" {
		errs = append(errs, errors.New("schema path cannot be empty"))
	}

	if samplePath == "" {
		errs = append(errs, errors.New("sample config path cannot be empty"))
	}

	return errors.Join(errs...)
}

func validateSchemaName(name string) error {
	if name == "" {
		return errors.New("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server modeline pointing at schemaName.
func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}
