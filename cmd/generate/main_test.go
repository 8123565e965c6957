package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-backtest/internal/batch"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/stretchr/testify/suite"
)

type GenerateCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *GenerateCmdTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *GenerateCmdTestSuite) configDir() string {
	return filepath.Join(suite.tempDir, "config")
}

func (suite *GenerateCmdTestSuite) TestSchemaGeneration() {
	suite.Require().NoError(generate(suite.configDir()))

	suite.True(dirExists(suite.configDir()), "Config directory should exist")

	for _, name := range []string{engineSchemaName, batchSchemaName} {
		content, err := os.ReadFile(filepath.Join(suite.configDir(), name))
		suite.Require().NoError(err)
		suite.NotEmpty(content, name)
	}

	for _, strategyType := range strategy.Types() {
		path := filepath.Join(suite.configDir(), strategiesDir, string(strategyType)+".json")
		suite.True(fileExists(path), path)
	}

	for _, indicatorType := range indicator.NewDefaultRegistry().List() {
		path := filepath.Join(suite.configDir(), indicatorsDir, string(indicatorType)+".json")
		suite.True(fileExists(path), path)
	}
}

func (suite *GenerateCmdTestSuite) TestSampleConfigGeneration() {
	suite.Require().NoError(generate(suite.configDir()))

	engineSample, err := os.ReadFile(filepath.Join(suite.configDir(), engineSampleName))
	suite.Require().NoError(err)
	suite.Contains(string(engineSample), "# yaml-language-server: $schema="+engineSchemaName)

	batchSample, err := os.ReadFile(filepath.Join(suite.configDir(), batchSampleName))
	suite.Require().NoError(err)
	suite.Contains(string(batchSample), "# yaml-language-server: $schema="+batchSchemaName)

	// the generated sample must be a usable batch file
	file, err := batch.Read(filepath.Join(suite.configDir(), batchSampleName))
	suite.Require().NoError(err)

	strategies, err := file.BuildStrategies()
	suite.Require().NoError(err)
	suite.NotEmpty(strategies)
	suite.NoError(file.Backtest.Validate())
}

func (suite *GenerateCmdTestSuite) TestSampleConfigNotOverwritten() {
	suite.Require().NoError(generate(suite.configDir()))

	samplePath := filepath.Join(suite.configDir(), batchSampleName)
	suite.Require().NoError(os.WriteFile(samplePath, []byte("edited"), 0644))

	suite.Require().NoError(generate(suite.configDir()))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("edited", string(content), "Sample config should not be overwritten")
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFile() {
	schemaPath := filepath.Join(suite.tempDir, "test-schema", "schema.json")

	suite.Require().NoError(generateSchemaFile(`{"type":"object"}`, schemaPath))

	content, err := os.ReadFile(schemaPath)
	suite.Require().NoError(err)
	suite.Equal(`{"type":"object"}`, string(content))
}

func (suite *GenerateCmdTestSuite) TestGenerateSchemaFileInvalidPath() {
	blocker := filepath.Join(suite.tempDir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("file"), 0644))

	err := generateSchemaFile("{}", filepath.Join(blocker, "schema.json"))
	suite.Error(err, "Should return error when the parent is a file")
	suite.Contains(err.Error(), "failed to")
}

func (suite *GenerateCmdTestSuite) TestGenerateSampleConfigAlreadyExists() {
	samplePath := filepath.Join(suite.tempDir, "existing-config.yaml")
	suite.Require().NoError(os.WriteFile(samplePath, []byte("existing content"), 0644))

	suite.Require().NoError(generateSampleConfig(batch.Sample(), samplePath, "test-schema.json"))

	content, err := os.ReadFile(samplePath)
	suite.Require().NoError(err)
	suite.Equal("existing content", string(content), "Existing file should not be overwritten")
}

func (suite *GenerateCmdTestSuite) TestValidatePaths() {
	suite.NoError(validatePaths("/some/path/schema.json", "/some/path/config.yaml"))

	err := validatePaths("", "/some/path/config.yaml")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "schema path cannot be empty")

	err = validatePaths("/some/path/schema.json", "")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "sample config path cannot be empty")

	suite.Error(validatePaths("", ""))
}

func (suite *GenerateCmdTestSuite) TestValidateSchemaName() {
	suite.NoError(validateSchemaName("schema.json"))
	suite.NoError(validateSchemaName("my-schema-file.json"))

	err := validateSchemaName("")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "schema name cannot be empty")

	err = validateSchemaName("schema.txt")
	suite.Require().Error(err)
	suite.Contains(err.Error(), "must have .json extension")

	suite.Error(validateSchemaName("schema"))
}

func (suite *GenerateCmdTestSuite) TestGetSchemaReference() {
	suite.Equal("# yaml-language-server: $schema=test-schema.json\n", getSchemaReference("test-schema.json"))
	suite.Equal("# yaml-language-server: $schema=\n", getSchemaReference(""))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func TestGenerateCmdSuite(t *testing.T) {
	suite.Run(t, new(GenerateCmdTestSuite))
}
