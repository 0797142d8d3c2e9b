package signkeys

import (
	"encoding/base64"
	"errors"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// UserKeys is a client key pair, the key whose address goes into a document's
// validity.signature_address.
type UserKeys struct {
	PrivateKey *secp256k1.PrivateKey
	PublicKey  *secp256k1.PublicKey
}

func GenerateKeys() (UserKeys, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return UserKeys{}, errors.New("failed to generate the keys: " + err.Error())
	}

	return UserKeys{
		PrivateKey: key,
		PublicKey:  key.PubKey(),
	}, nil
}

func NewUserKeys(privateKey []byte) (UserKeys, error) {
	if len(privateKey) != secp256k1.PrivKeyBytesLen {
		return UserKeys{}, errors.New("invalid private key length")
	}
	key := secp256k1.PrivKeyFromBytes(privateKey)
	return UserKeys{PrivateKey: key, PublicKey: key.PubKey()}, nil
}

func (u UserKeys) Valid() bool {
	return u.PrivateKey != nil && u.PublicKey != nil
}

// Address is the P2PKH address of the compressed public key.
func (u UserKeys) Address(net *chaincfg.Params) string {
	return AddressFromPubKey(u.PublicKey.SerializeCompressed(), net)
}

// SignMessage produces a base64 compact signature over the Bitcoin signed message hash of message.
func (u UserKeys) SignMessage(message []byte) string {
	sig := ecdsa.SignCompact(u.PrivateKey, MessageHash(message), true)
	return base64.StdEncoding.EncodeToString(sig)
}
