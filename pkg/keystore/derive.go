package keystore

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"keystore-swap/pkg/types"
)

const (
	// EVMDerivationPath is the BIP44 path used for EVM accounts
	EVMDerivationPath = "m/44'/60'/0'/0/0"
	// THORChainDerivationPath is the BIP44 path used for THORChain accounts
	THORChainDerivationPath = "m/44'/931'/0'/0/0"

	thorchainHRP = "thor"
)

// account is the key material derived for one chain
type account struct {
	chain   types.Chain
	address string
	key     *ecdsa.PrivateKey
}

// seedFromMnemonic validates the phrase against the BIP39 wordlist and returns its seed
func seedFromMnemonic(phrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return seed, nil
}

// deriveAccount derives the account for chain from a BIP39 seed
func deriveAccount(seed []byte, chain types.Chain) (*account, error) {
	switch chain {
	case types.ChainBase:
		key, err := deriveKey(seed, EVMDerivationPath)
		if err != nil {
			return nil, err
		}
		return &account{
			chain:   chain,
			address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
			key:     key,
		}, nil
	case types.ChainTHORChain:
		key, err := deriveKey(seed, THORChainDerivationPath)
		if err != nil {
			return nil, err
		}
		address, err := thorchainAddress(key)
		if err != nil {
			return nil, err
		}
		return &account{chain: chain, address: address, key: key}, nil
	default:
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
}

func deriveKey(seed []byte, path string) (*ecdsa.PrivateKey, error) {
	dp, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %s: %w", path, err)
	}

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	for _, index := range dp {
		key, err = key.Derive(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", path, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get private key: %w", err)
	}

	return crypto.ToECDSA(priv.Serialize())
}

// thorchainAddress encodes the compressed public key hash as a thor1 bech32 address
func thorchainAddress(key *ecdsa.PrivateKey) (string, error) {
	pub := crypto.CompressPubkey(&key.PublicKey)

	data, err := bech32.ConvertBits(btcutil.Hash160(pub), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address bits: %w", err)
	}

	address, err := bech32.Encode(thorchainHRP, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	return address, nil
}
