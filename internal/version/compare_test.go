package version

import (
	"testing"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CompareTestSuite struct {
	suite.Suite
}

func TestCompareSuite(t *testing.T) {
	suite.Run(t, new(CompareTestSuite))
}

func (suite *CompareTestSuite) TestCompatibleVersions() {
	tests := []struct {
		name   string
		engine string
		config string
	}{
		{name: "exact match", engine: "1.0.0", config: "1.0.0"},
		{name: "patch differs", engine: "1.0.4", config: "1.0.1"},
		{name: "v prefixes", engine: "v1.0.0", config: "1.0.2"},
		{name: "prerelease engine", engine: "1.0.0-rc.1", config: "v1.0.0"},
		{name: "build metadata", engine: "1.0.0+a1b2c3", config: "1.0.0"},
		{name: "development engine", engine: "main", config: "3.4.0"},
		{name: "development config", engine: "1.0.0", config: "main"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.NoError(CheckVersionCompatibility(tc.engine, tc.config))
		})
	}
}

func (suite *CompareTestSuite) TestIncompatibleVersions() {
	tests := []struct {
		name     string
		engine   string
		config   string
		contains string
	}{
		{name: "newer engine minor", engine: "1.1.0", config: "1.0.0", contains: "minor version mismatch"},
		{name: "older engine minor", engine: "1.0.0", config: "1.1.0", contains: "minor version mismatch"},
		{name: "major differs", engine: "2.0.0", config: "1.0.0", contains: "major version mismatch"},
		{name: "garbage engine", engine: "latest", config: "1.0.0", contains: "invalid engine version"},
		{name: "garbage config", engine: "1.0.0", config: "one", contains: "invalid config version"},
		{name: "empty engine", engine: "", config: "1.0.0", contains: "invalid engine version"},
		{name: "empty config", engine: "1.0.0", config: "", contains: "invalid config version"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := CheckVersionCompatibility(tc.engine, tc.config)
			suite.Require().Error(err)
			suite.Equal(errors.ErrCodeInvalidVersion, errors.GetCode(err))
			suite.True(errors.IsValidation(err))
			suite.Contains(err.Error(), tc.contains)
		})
	}
}

func (suite *CompareTestSuite) TestCurrentVersionAcceptsItself() {
	suite.Equal(Version, GetVersion())
	suite.NoError(CheckVersionCompatibility(GetVersion(), GetVersion()))
}
