package domain

// KeyPrefix namespaces every key the gallery writes to the store.
const KeyPrefix = "gallery:"
