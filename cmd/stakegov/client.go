package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/quorumlab/stakegov/crypto"
	"github.com/quorumlab/stakegov/state"
	"github.com/quorumlab/stakegov/tx"
	"github.com/quorumlab/stakegov/types"
)

// txResponse mirrors indexer.SubmitTxResponse.
type txResponse struct {
	Code   uint32        `json:"code"`
	Log    string        `json:"log"`
	Height uint64        `json:"height"`
	Events []types.Event `json:"events"`
}

func getJSON(url string, out any) error {
	res, err := http.Get(url)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	dat, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request fail status:%v body:%s", res.StatusCode, dat)
	}
	return json.Unmarshal(dat, out)
}

func queryAccount(url string, address string) (*state.Account, error) {
	var out struct {
		Account *state.Account `json:"account"`
		Height  uint64         `json:"height"`
	}
	if err := getJSON(fmt.Sprintf("%s/account/%s", url, address), &out); err != nil {
		return nil, err
	}
	if out.Account == nil {
		return nil, errors.New("account not found")
	}
	return out.Account, nil
}

func queryChainID(url string) (string, error) {
	var out struct {
		ChainID string `json:"chainId"`
	}
	if err := getJSON(url+"/governance", &out); err != nil {
		return "", err
	}
	return out.ChainID, nil
}

// signAndSend fills nonce and owner from the key's account when unset,
// signs the envelope against the chain id, and posts it to the service.
func signAndSend(url string, skeyPath string, btx *tx.GovTx, nosend bool) error {
	chainID, err := queryChainID(url)
	if err != nil {
		return fmt.Errorf("get chain id err:%w", err)
	}
	pv := crypto.LoadFilePV(skeyPath)
	if btx.Type != tx.GovTxTypeAdmission && btx.Owner == 0 {
		act, err := queryAccount(url, pv.Address())
		if err != nil {
			return fmt.Errorf("query account err:%w", err)
		}
		btx.Owner = act.Index
		btx.Nonce = act.Nonce
	}
	dat, err := btx.SigData([]byte(chainID))
	if err != nil {
		return fmt.Errorf("tx sign data err:%w", err)
	}
	sig, err := pv.Sign(dat)
	if err != nil {
		return fmt.Errorf("sign tx err:%w", err)
	}
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", pv.Address())
	btx.Sig = [][]byte{sig}
	if nosend {
		fmt.Println("transaction signature:")
		fmt.Println(hex.EncodeToString(sig))
		return nil
	}
	raw, err := tx.MarshalGovTx(btx)
	if err != nil {
		return fmt.Errorf("marshal tx err:%w", err)
	}
	res, err := http.Post(url+"/tx", "application/json", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("send tx err:%w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	var out txResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode response err:%w body:%s", err, body)
	}
	if out.Code != 0 {
		return fmt.Errorf("tx rejected code:%v log:%v", out.Code, out.Log)
	}
	fmt.Printf("tx applied height:%v\n", out.Height)
	for _, ev := range out.Events {
		fmt.Printf("event %v %v\n", ev.Type, ev.Attributes)
	}
	return nil
}
