package types

import (
	"fmt"
	"strconv"
)

const (
	EventRoundOpenedType      = "round_opened"
	EventVoteType             = "vote"
	EventRoundSettledType     = "round_settled"
	EventDepositType          = "deposit"
	EventWithdrawType         = "withdraw"
	EventExitType             = "exit"
	EventAdmissionRequestType = "admission_request"
)

// Settlement outcomes as reported on events.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeExpired = "expired"
)

type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Index bool   `json:"index"`
}

type Event struct {
	Type       string           `json:"type"`
	Height     uint64           `json:"height"`
	Attributes []EventAttribute `json:"attributes"`
}

// ExecResult is the outcome of applying one transaction.
type ExecResult struct {
	Code   uint32  `json:"code"`
	Log    string  `json:"log"`
	Events []Event `json:"events"`
}

type EventRoundOpened struct {
	Topic         Topic  `json:"topic"`
	Opener        uint64 `json:"openerIndex"`
	OpenerAddress string `json:"openerAddress"`
	OpenedAt      int64  `json:"openedAt"`
}

func EncodeEventRoundOpened(event *EventRoundOpened) Event {
	return Event{
		Type: EventRoundOpenedType,
		Attributes: []EventAttribute{
			{Key: "topic", Value: event.Topic.String(), Index: true},
			{Key: "opener", Value: fmt.Sprintf("%v", event.Opener), Index: true},
			{Key: "openerAddress", Value: event.OpenerAddress, Index: false},
			{Key: "openedAt", Value: fmt.Sprintf("%v", event.OpenedAt), Index: false},
		},
	}
}

func DecodeEventRoundOpened(originEvent Event) *EventRoundOpened {
	event := &EventRoundOpened{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "topic":
			topic, err := ParseTopic(v.Value)
			if err != nil {
				return nil
			}
			event.Topic = topic
		case "opener":
			opener, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Opener = opener
		case "openerAddress":
			event.OpenerAddress = v.Value
		case "openedAt":
			openedAt, err := strconv.ParseInt(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.OpenedAt = openedAt
		}
	}
	return event
}

type EventVote struct {
	Topic        Topic  `json:"topic"`
	Voter        uint64 `json:"voterIndex"`
	VoterAddress string `json:"voterAddress"`
	Approve      bool   `json:"approve"`
	YesCount     uint64 `json:"yesCount"`
	NoCount      uint64 `json:"noCount"`
	Total        uint64 `json:"total"`
}

func EncodeEventVote(event *EventVote) Event {
	return Event{
		Type: EventVoteType,
		Attributes: []EventAttribute{
			{Key: "topic", Value: event.Topic.String(), Index: true},
			{Key: "voter", Value: fmt.Sprintf("%v", event.Voter), Index: true},
			{Key: "voterAddress", Value: event.VoterAddress, Index: false},
			{Key: "approve", Value: strconv.FormatBool(event.Approve), Index: false},
			{Key: "yes", Value: fmt.Sprintf("%v", event.YesCount), Index: false},
			{Key: "no", Value: fmt.Sprintf("%v", event.NoCount), Index: false},
			{Key: "total", Value: fmt.Sprintf("%v", event.Total), Index: false},
		},
	}
}

func DecodeEventVote(originEvent Event) *EventVote {
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "topic":
			topic, err := ParseTopic(v.Value)
			if err != nil {
				return nil
			}
			event.Topic = topic
		case "voter":
			voter, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Voter = voter
		case "voterAddress":
			event.VoterAddress = v.Value
		case "approve":
			approve, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Approve = approve
		case "yes":
			yes, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.YesCount = yes
		case "no":
			no, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.NoCount = no
		case "total":
			total, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Total = total
		}
	}
	return event
}

type EventRoundSettled struct {
	Topic    Topic  `json:"topic"`
	Outcome  string `json:"outcome"`
	YesCount uint64 `json:"yesCount"`
	NoCount  uint64 `json:"noCount"`
	Reward   uint64 `json:"reward"`
	Closer   uint64 `json:"closerIndex"`
}

func EncodeEventRoundSettled(event *EventRoundSettled) Event {
	return Event{
		Type: EventRoundSettledType,
		Attributes: []EventAttribute{
			{Key: "topic", Value: event.Topic.String(), Index: true},
			{Key: "outcome", Value: event.Outcome, Index: true},
			{Key: "yes", Value: fmt.Sprintf("%v", event.YesCount), Index: false},
			{Key: "no", Value: fmt.Sprintf("%v", event.NoCount), Index: false},
			{Key: "reward", Value: fmt.Sprintf("%v", event.Reward), Index: false},
			{Key: "closer", Value: fmt.Sprintf("%v", event.Closer), Index: false},
		},
	}
}

func DecodeEventRoundSettled(originEvent Event) *EventRoundSettled {
	event := &EventRoundSettled{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "topic":
			topic, err := ParseTopic(v.Value)
			if err != nil {
				return nil
			}
			event.Topic = topic
		case "outcome":
			event.Outcome = v.Value
		case "yes":
			yes, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.YesCount = yes
		case "no":
			no, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.NoCount = no
		case "reward":
			reward, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Reward = reward
		case "closer":
			closer, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Closer = closer
		}
	}
	return event
}

type EventStakeChange struct {
	Kind    string `json:"kind"`
	Owner   uint64 `json:"ownerIndex"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
	Name    string `json:"name,omitempty"`
}

// EncodeEventStakeChange covers deposit, withdraw, exit and admission
// request events; Kind carries the concrete event type.
func EncodeEventStakeChange(event *EventStakeChange) Event {
	return Event{
		Type: event.Kind,
		Attributes: []EventAttribute{
			{Key: "owner", Value: fmt.Sprintf("%v", event.Owner), Index: true},
			{Key: "address", Value: event.Address, Index: true},
			{Key: "amount", Value: fmt.Sprintf("%v", event.Amount), Index: false},
			{Key: "balance", Value: fmt.Sprintf("%v", event.Balance), Index: false},
			{Key: "name", Value: event.Name, Index: false},
		},
	}
}

func DecodeEventStakeChange(originEvent Event) *EventStakeChange {
	event := &EventStakeChange{Kind: originEvent.Type}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "owner":
			owner, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Owner = owner
		case "address":
			event.Address = v.Value
		case "amount":
			amount, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Amount = amount
		case "balance":
			balance, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Balance = balance
		case "name":
			event.Name = v.Value
		}
	}
	return event
}
