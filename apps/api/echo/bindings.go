package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

const dateLayout = "2006-01-02"

// DateRange binds optional `from` / `to` query params as local dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (dr *DateRange) Bind(ctx echo.Context) error {
	var err error
	if dr.From, err = dateParam(ctx, "from"); err != nil {
		return err
	}
	dr.To, err = dateParam(ctx, "to")
	return err
}

// dateParam parses an optional "2006-01-02" query param in the configured
// zone; zero when absent.
func dateParam(ctx echo.Context, name string) (time.Time, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return time.Time{}, nil
	}
	return parseDate(val, name)
}

func parseDate(val, field string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, val, core.Conf.Location())
	if err != nil {
		return time.Time{}, core.NewFieldError(field, "invalid date, expected format 2006-01-02")
	}
	return t, nil
}
