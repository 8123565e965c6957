package strategy

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/suite"
)

type JsonSchemaTestSuite struct {
	suite.Suite
}

func TestJsonSchemaTestSuite(t *testing.T) {
	suite.Run(t, new(JsonSchemaTestSuite))
}

func (suite *JsonSchemaTestSuite) TestToJSONSchema() {
	type crossConfig struct {
		Fast int    `json:"fast" jsonschema:"title=Fast Period,minimum=2,default=5"`
		Slow int    `json:"slow" jsonschema:"title=Slow Period,minimum=3,default=20"`
		Kind string `json:"kind" jsonschema:"title=Kind,enum=sma,enum=ema,enum=wma"`
	}

	schema, err := ToJSONSchema(&crossConfig{Fast: 5, Slow: 20, Kind: "sma"})
	suite.Require().NoError(err)

	var decoded struct {
		Properties map[string]struct {
			Title   string `json:"title"`
			Minimum *int   `json:"minimum"`
			Enum    []any  `json:"enum"`
		} `json:"properties"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))

	suite.Require().Contains(decoded.Properties, "fast")
	suite.Equal("Fast Period", decoded.Properties["fast"].Title)
	suite.Require().NotNil(decoded.Properties["slow"].Minimum)
	suite.Equal(3, *decoded.Properties["slow"].Minimum)
	suite.Equal([]any{"sma", "ema", "wma"}, decoded.Properties["kind"].Enum)
}

func (suite *JsonSchemaTestSuite) TestToJSONSchemaOptions() {
	type windowConfig struct {
		Period int     `json:"period" jsonschema:"minimum=2"`
		Ratio  float64 `json:"ratio"`
	}

	ratioMapper := func(t reflect.Type) *jsonschema.Schema {
		if t.Kind() == reflect.Float64 {
			return &jsonschema.Schema{Type: "string", Pattern: "^[0-9.]+$"}
		}

		return nil
	}

	schema, err := ToJSONSchema(windowConfig{}, WithTitle("volume_ratio"), WithMapper(ratioMapper))
	suite.Require().NoError(err)

	var decoded struct {
		Title      string `json:"title"`
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	suite.Require().NoError(json.Unmarshal([]byte(schema), &decoded))

	suite.Equal("volume_ratio", decoded.Title)
	suite.Equal("integer", decoded.Properties["period"].Type)
	suite.Equal("string", decoded.Properties["ratio"].Type)
}
