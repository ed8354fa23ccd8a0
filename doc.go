// Package itsdangerous signs data to produce tamper evident tokens that
// can safely be round-tripped through untrusted channels such as URLs,
// cookies or confirmation links.
//
// Tokens are not encrypted: anyone can read the payload, but nobody can
// change it without invalidating the keyed MAC. Signer works on raw
// bytes; Serializer and its variants sign structured values through a
// payload codec, add timestamps with expiry checks, URL-safe framing
// with transparent compression, or the JWS compact serialization.
//
// Secret keys should be long random byte strings. A ring of keys,
// ordered oldest to newest, supports rotation: the newest key signs and
// every key verifies.
package itsdangerous
