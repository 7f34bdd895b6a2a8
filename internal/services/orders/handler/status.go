package handler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"wms-system/internal/database/models"
)

var ErrStatusConflict = errors.New("status conflict")

// Events name the workflow operations. Each event carries its own
// allowed-transition map; an event absent for the current status is a
// status conflict. Some events keep the status in place (receive only moves
// to RECEIVED once every line is complete).

type poEvent string

const (
	poEventSubmit  poEvent = "submit"
	poEventApprove poEvent = "approve"
	poEventShip    poEvent = "ship"
	poEventReceive poEvent = "receive"
	poEventCancel  poEvent = "cancel"
)

var poTransitions = map[poEvent]map[models.POStatus]models.POStatus{
	poEventSubmit: {
		models.POStatusDraft: models.POStatusSubmitted,
	},
	poEventApprove: {
		models.POStatusSubmitted: models.POStatusApproved,
	},
	poEventShip: {
		models.POStatusApproved: models.POStatusShipped,
	},
	poEventReceive: {
		models.POStatusApproved: models.POStatusApproved,
		models.POStatusShipped:  models.POStatusShipped,
	},
	poEventCancel: {
		models.POStatusDraft:     models.POStatusCancelled,
		models.POStatusSubmitted: models.POStatusCancelled,
		models.POStatusApproved:  models.POStatusCancelled,
		models.POStatusShipped:   models.POStatusCancelled,
	},
}

type soEvent string

const (
	soEventSubmit  soEvent = "submit"
	soEventProcess soEvent = "process"
	soEventPick    soEvent = "pick"
	soEventFulfill soEvent = "fulfill"
	soEventShip    soEvent = "ship"
	soEventDeliver soEvent = "deliver"
	soEventReturn  soEvent = "return"
	soEventCancel  soEvent = "cancel"
)

var soTransitions = map[soEvent]map[models.SOStatus]models.SOStatus{
	soEventSubmit: {
		models.SOStatusDraft: models.SOStatusSubmitted,
	},
	soEventProcess: {
		models.SOStatusSubmitted: models.SOStatusProcessing,
	},
	soEventPick: {
		models.SOStatusProcessing: models.SOStatusPicking,
	},
	soEventFulfill: {
		models.SOStatusProcessing: models.SOStatusPacked,
		models.SOStatusPicking:    models.SOStatusPacked,
	},
	soEventShip: {
		models.SOStatusPacked: models.SOStatusShipped,
	},
	soEventDeliver: {
		models.SOStatusShipped: models.SOStatusDelivered,
	},
	soEventReturn: {
		models.SOStatusShipped:   models.SOStatusReturned,
		models.SOStatusDelivered: models.SOStatusReturned,
	},
	soEventCancel: {
		models.SOStatusDraft:      models.SOStatusCancelled,
		models.SOStatusSubmitted:  models.SOStatusCancelled,
		models.SOStatusProcessing: models.SOStatusCancelled,
		models.SOStatusPicking:    models.SOStatusCancelled,
		models.SOStatusPacked:     models.SOStatusCancelled,
	},
}

func transitionPO(current models.POStatus, event poEvent) (models.POStatus, error) {
	allowed := poTransitions[event]
	if next, ok := allowed[current]; ok {
		return next, nil
	}
	return "", statusConflict(string(event), string(current), poStatusNames(allowed))
}

func transitionSO(current models.SOStatus, event soEvent) (models.SOStatus, error) {
	allowed := soTransitions[event]
	if next, ok := allowed[current]; ok {
		return next, nil
	}
	return "", statusConflict(string(event), string(current), soStatusNames(allowed))
}

// Line items may only be added or removed while the order is still being
// drafted.

func poEditable(status models.POStatus) bool {
	return status == models.POStatusDraft || status == models.POStatusSubmitted
}

func soEditable(status models.SOStatus) bool {
	return status == models.SOStatusDraft || status == models.SOStatusSubmitted
}

func statusConflict(event, current string, required []string) error {
	return fmt.Errorf("%w: %s requires status %s, order is %s",
		ErrStatusConflict, event, strings.Join(required, " or "), current)
}

func poStatusNames(allowed map[models.POStatus]models.POStatus) []string {
	names := make([]string, 0, len(allowed))
	for from := range allowed {
		names = append(names, string(from))
	}
	sort.Strings(names)
	return names
}

func soStatusNames(allowed map[models.SOStatus]models.SOStatus) []string {
	names := make([]string, 0, len(allowed))
	for from := range allowed {
		names = append(names, string(from))
	}
	sort.Strings(names)
	return names
}
