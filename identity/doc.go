// Package identity manages player accounts and access tokens.
//
// Usernames are 5 to 20 ASCII letters or digits and unique across users.
// Passwords must score at least 3 on zxcvbn and are stored as bcrypt
// hashes. Login issues an HS256 JWT carrying the user id (sub), the
// username and a token id (jti); Logout puts the token id on a revocation
// list until the token would have expired anyway.
//
// Users live in a Repository (MemoryRepo or MongoRepo); revoked token ids
// in a Revoker (MemoryRevoker or RedisRevoker).
package identity
