package builtin

import (
	"context"
	"time"

	"github.com/rickchristie/gentrun"
)

type currentTimeInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA time zone such as Europe/Paris; defaults to local time"`
}

// CurrentTime returns the current_time tool.
func CurrentTime(now func() time.Time) gentrun.Tool {
	if now == nil {
		now = time.Now
	}
	return gentrun.NewToolFunc(CurrentTimeName, "Returns the current date and time.",
		func(_ context.Context, in currentTimeInput) (*gentrun.ToolResult, error) {
			t := now()
			if in.Timezone != "" {
				loc, err := time.LoadLocation(in.Timezone)
				if err != nil {
					return nil, gentrun.NewToolError(gentrun.ToolErrValidation, "unknown time zone %q", in.Timezone)
				}
				t = t.In(loc)
			}
			return &gentrun.ToolResult{
				Title: "Current time",
				Output: map[string]any{
					"time":     t.Format(time.RFC3339),
					"weekday":  t.Weekday().String(),
					"timezone": t.Location().String(),
				},
			}, nil
		},
	)
}
