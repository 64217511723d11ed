package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		wantErr error
	}{
		{"request to confirmed", StatusRequested, StatusConfirmed, nil},
		{"request to cancelled", StatusRequested, StatusCancelled, nil},
		{"confirmed to completed", StatusConfirmed, StatusCompleted, nil},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, nil},
		{"request straight to completed", StatusRequested, StatusCompleted, ErrBadTransition},
		{"completed is terminal", StatusCompleted, StatusConfirmed, ErrBadTransition},
		{"cancelled is terminal", StatusCancelled, StatusRequested, ErrBadTransition},
		{"unknown target", StatusRequested, Status("SOMETHING"), ErrUnknownStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Booking{Status: tc.from}
			err := b.Transition(tc.to)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.from, b.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, b.Status)
		})
	}
}
