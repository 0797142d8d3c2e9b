package signkeys

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

const messageMagic = "Bitcoin Signed Message:\n"

var (
	ErrUnknownNetwork = errors.New("unknown bitcoin network")
	ErrBadSignature   = errors.New("malformed signature")
)

// NetworkParams returns the chain parameters addresses are checked against.
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "", "mainnet", "main":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, ErrUnknownNetwork
	}
}

// MessageHash is the double sha256 of the magic prefix and the message, both var-string encoded.
func MessageHash(message []byte) []byte {
	var buf bytes.Buffer
	// writes into a bytes.Buffer don't fail
	_ = wire.WriteVarString(&buf, 0, messageMagic)
	_ = wire.WriteVarString(&buf, 0, string(message))
	return chainhash.DoubleHashB(buf.Bytes())
}

// AddressFromPubKey returns the base58check P2PKH address of a serialized public key.
func AddressFromPubKey(pubKey []byte, net *chaincfg.Params) string {
	sha := chainhash.HashB(pubKey)
	ripe := ripemd160.New()
	_, _ = ripe.Write(sha)

	payload := make([]byte, 0, 1+ripemd160.Size+4)
	payload = append(payload, net.PubKeyHashAddrID)
	payload = ripe.Sum(payload)
	checksum := chainhash.DoubleHashB(payload)[:4]

	return base58.Encode(append(payload, checksum...))
}

// VerifyMessage checks that signature was made over message by the key behind address.
// A signature that can't be decoded or recovered is reported through the error,
// a well formed signature from another key returns false.
func VerifyMessage(net *chaincfg.Params, address string, message []byte, signature string) (bool, error) {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, errors.New("failed to decode the signature: " + err.Error())
	}
	if len(sig) != 65 {
		return false, ErrBadSignature
	}

	pubKey, compressed, err := btcec.RecoverCompact(btcec.S256(), sig, MessageHash(message))
	if err != nil {
		return false, errors.New("failed to recover the public key: " + err.Error())
	}

	var serialized []byte
	if compressed {
		serialized = pubKey.SerializeCompressed()
	} else {
		serialized = pubKey.SerializeUncompressed()
	}

	return AddressFromPubKey(serialized, net) == address, nil
}
