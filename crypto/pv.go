package crypto

import (
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/cometbft/cometbft/privval"
)

// PV wraps the on-disk signing key. The file format matches cometbft's
// priv_validator_key.json so keys move between tools unchanged.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) *PV {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		cmtos.Exit(err.Error())
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		cmtos.Exit(fmt.Sprintf("Error reading signing key from %v: %v\n", keyFilePath, err))
	}

	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}
}

// GenFilePV generates a fresh ed25519 key and writes it to keyFilePath.
// An existing key file is loaded instead of being overwritten.
func GenFilePV(keyFilePath string) (*PV, error) {
	if cmtos.FileExists(keyFilePath) {
		return LoadFilePV(keyFilePath), nil
	}
	priv := ed25519.GenPrivKey()
	pvKey := privval.FilePVKey{
		Address: priv.PubKey().Address(),
		PubKey:  priv.PubKey(),
		PrivKey: priv,
	}
	dat, err := cmtjson.MarshalIndent(pvKey, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyFilePath, dat, 0o600); err != nil {
		return nil, err
	}
	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
