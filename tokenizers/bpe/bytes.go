package bpe

// NumBytes is the number of base tokens: ids 0-255 always stand for the single byte of the same value.
const NumBytes = 256

// ToBytes maps a chunk to its UTF-8 bytes, as token ids in the range 0-255.
func ToBytes(chunk string) []int {
	ids := make([]int, len(chunk))
	for i := 0; i < len(chunk); i++ {
		ids[i] = int(chunk[i])
	}
	return ids
}
