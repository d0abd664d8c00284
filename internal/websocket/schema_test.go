package websocket

import (
	"testing"

	"github.com/stemsi/examportal-backend/internal/examsession"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestEventFor(t *testing.T) {
	res := &model.Result{Score: 50}

	assert.Equal(t, TickResponse{Event: EventTick, Remaining: 42},
		EventFor(examsession.Snapshot{State: examsession.StateInProgress, RemainingSeconds: 42}))

	done := EventFor(examsession.Snapshot{State: examsession.StateCompleted, Trigger: examsession.TriggerTimer, Result: res})
	assert.Equal(t, CompletedResponse{Event: EventCompleted, Trigger: examsession.TriggerTimer, Result: res}, done)

	blocked := EventFor(examsession.Snapshot{State: examsession.StateBlocked, Reason: examsession.ReasonExamClosed})
	assert.Equal(t, BlockedResponse{Event: EventBlocked, Reason: examsession.ReasonExamClosed}, blocked)

	gate := EventFor(examsession.Snapshot{State: examsession.StateTermsGate})
	assert.IsType(t, StateResponse{}, gate)
}
