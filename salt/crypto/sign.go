package crypto

import (
	"crypto/ed25519"
)

// Sign signs message with an Ed25519 secret key.
func Sign(mySigningSecret, message []byte) ([]byte, error) {
	if len(mySigningSecret) != SigningSecretSize {
		return nil, ErrInvalidKeyLength
	}
	return ed25519.Sign(ed25519.PrivateKey(mySigningSecret), message), nil
}

// Verify checks an Ed25519 signature over message.
func Verify(peerSigningPublic, message, signature []byte) error {
	if len(peerSigningPublic) != SigningPublicSize {
		return ErrInvalidKeyLength
	}
	if len(signature) != SignatureSize {
		return ErrInvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(peerSigningPublic), message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// SignaturePayload returns own || peer, the bytes a handshake signature covers.
// Both keys are ephemeral exchange public keys.
func SignaturePayload(own, peer []byte) ([]byte, error) {
	if len(own) != ExchangePublicSize || len(peer) != ExchangePublicSize {
		return nil, ErrInvalidKeyLength
	}
	out := make([]byte, 0, 2*ExchangePublicSize)
	out = append(out, own...)
	out = append(out, peer...)
	return out, nil
}

// SignHandshake signs (ownEphemeral, peerEphemeral) with the long-term key.
func SignHandshake(kp SigningKeyPair, ownEphemeral, peerEphemeral []byte) ([]byte, error) {
	msg, err := SignaturePayload(ownEphemeral, peerEphemeral)
	if err != nil {
		return nil, err
	}
	return Sign(kp.Secret, msg)
}

// VerifyHandshake checks a peer's handshake signature. The peer signed
// (peerEphemeral, ownEphemeral) from its own point of view, so the payload
// is rebuilt with the roles swapped.
func VerifyHandshake(peerSigningPublic, ownEphemeral, peerEphemeral, signature []byte) error {
	msg, err := SignaturePayload(peerEphemeral, ownEphemeral)
	if err != nil {
		return err
	}
	return Verify(peerSigningPublic, msg, signature)
}
