package types

import (
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"
)

func TestParseTopicRoundTrip(t *testing.T) {
	for tp := TopicImplementation; tp <= TopicWhitelist; tp++ {
		require.True(t, tp.Valid())
		got, err := ParseTopic(tp.String())
		require.NoError(t, err)
		require.Equal(t, tp, got)
	}
	require.False(t, TopicUnknown.Valid())
	require.False(t, Topic(200).Valid())
	_, err := ParseTopic("nonsense")
	require.Error(t, err)
}

func TestGenesisDocValidate(t *testing.T) {
	doc := &GenesisDoc{}
	require.Error(t, doc.ValidateAndComplete())

	doc.ChainID = "stakegov-test"
	require.Error(t, doc.ValidateAndComplete())

	doc.RequiredStake = 100
	require.NoError(t, doc.ValidateAndComplete())
	require.False(t, doc.GenesisTime.IsZero())
}

func TestGenesisOwnerStakeBelowRequired(t *testing.T) {
	doc := &GenesisDoc{
		ChainID:       "stakegov-test",
		RequiredStake: 100,
		Owners:        []GenesisOwner{{PubKey: ed25519.GenPrivKey().PubKey(), Stake: 50}},
	}
	require.Error(t, doc.ValidateAndComplete())
}
