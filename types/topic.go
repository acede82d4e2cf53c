package types

import "fmt"

// Topic identifies one governed decision. Exactly one round may be open per
// topic at any time.
type Topic uint8

const (
	TopicUnknown        Topic = 0
	TopicImplementation Topic = 1
	TopicRequiredStake  Topic = 2
	TopicAdmission      Topic = 3
	TopicRemoval        Topic = 4
	TopicPause          Topic = 5
	TopicTreasury       Topic = 6
	TopicWhitelist      Topic = 7
)

var topicNames = map[Topic]string{
	TopicImplementation: "implementation",
	TopicRequiredStake:  "required_stake",
	TopicAdmission:      "admission",
	TopicRemoval:        "removal",
	TopicPause:          "pause",
	TopicTreasury:       "treasury",
	TopicWhitelist:      "whitelist",
}

func (t Topic) String() string {
	if s, ok := topicNames[t]; ok {
		return s
	}
	return fmt.Sprintf("topic(%d)", uint8(t))
}

func (t Topic) Valid() bool {
	_, ok := topicNames[t]
	return ok
}

// ParseTopic resolves a topic by its wire name.
func ParseTopic(s string) (Topic, error) {
	for t, name := range topicNames {
		if name == s {
			return t, nil
		}
	}
	return TopicUnknown, fmt.Errorf("unknown topic %q", s)
}
