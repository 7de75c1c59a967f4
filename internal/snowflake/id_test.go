package snowflake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimeToID(t *testing.T) {
	t.Run("round trips to the millisecond", func(t *testing.T) {
		require := require.New(t)

		ts := time.Date(2023, 4, 1, 12, 30, 45, 123_000_000, time.UTC)
		require.True(ts.Equal(TimeToID(ts).ToTime()))
	})
	t.Run("ids for the same instant are unique and ordered", func(t *testing.T) {
		require := require.New(t)

		ts := time.Now()
		a, b := TimeToID(ts), TimeToID(ts)
		require.NotEqual(a, b)
		require.True(a.ToTime().Equal(b.ToTime()))
	})
	t.Run("later times sort after earlier times", func(t *testing.T) {
		require := require.New(t)

		earlier := TimeToID(time.Now().Add(-time.Hour))
		require.Less(uint64(earlier), uint64(Now()))
	})
}

func TestParse(t *testing.T) {
	require := require.New(t)

	id := Now()
	got, err := Parse(id.String())
	require.NoError(err)
	require.Equal(id, got)

	_, err = Parse("not-a-number")
	require.Error(err)
}
