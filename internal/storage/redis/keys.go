package redis

import "fmt"

// Key prefix for all blackjack data
const keyPrefix = "bjgame"

// profileKey returns the Redis key for a Profile
func profileKey(username string) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, username)
}

// profilesIndexKey returns the Redis key for the SET of all usernames
func profilesIndexKey() string {
	return fmt.Sprintf("%s:idx:profiles", keyPrefix)
}

// tableKey returns the Redis key for a player's Table
func tableKey(username string) string {
	return fmt.Sprintf("%s:table:%s", keyPrefix, username)
}

// transactionsKey returns the Redis key for the transaction LIST
func transactionsKey() string {
	return fmt.Sprintf("%s:transactions", keyPrefix)
}

// transactionSeqKey returns the Redis key for the transaction id counter
func transactionSeqKey() string {
	return fmt.Sprintf("%s:seq:transactions", keyPrefix)
}
