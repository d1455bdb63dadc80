package game

import "github.com/google/uuid"

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("Failed to generate UUID: " + err.Error())
	}

	return id.String()
}

// GenShortID keeps the random tail of a v7 UUID; the head is a timestamp and
// collides for ids generated in the same millisecond.
func GenShortID() string {
	id := GenID()
	return id[len(id)-8:]
}
