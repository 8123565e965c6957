package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DonchianTestSuite struct {
	suite.Suite
}

func TestDonchianSuite(t *testing.T) {
	suite.Run(t, new(DonchianTestSuite))
}

func (suite *DonchianTestSuite) TestExcludesCurrentBar() {
	donchian, err := NewDonchian(DonchianConfig{Period: 3})
	suite.Require().NoError(err)

	series := closeSeries(5, 7, 6, 9, 4)
	result, err := donchian.Calculate(series)
	suite.Require().NoError(err)

	high := result.Columns[donchian.HighColumn()]
	low := result.Columns[donchian.LowColumn()]

	suite.False(high.Defined(2))
	suite.Equal(7.0, high[3].Unwrap())
	suite.Equal(5.0, low[3].Unwrap())
	suite.Equal(9.0, high[4].Unwrap())
	suite.Equal(6.0, low[4].Unwrap())
}
