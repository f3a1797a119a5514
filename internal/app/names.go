package app

import (
	"math/rand"
	"strconv"
)

var nameAdjectives = []string{
	"Sketchy", "Inky", "Dotty", "Scribbly", "Smudgy",
	"Doodly", "Pastel", "Neon", "Wobbly", "Swirly",
	"Crayon", "Chalky", "Glossy", "Fuzzy", "Zigzag",
}

var nameNouns = []string{
	"Otter", "Falcon", "Panda", "Gecko", "Badger",
	"Walrus", "Lynx", "Koala", "Heron", "Marmot",
	"Squid", "Bison", "Ferret", "Toucan", "Yak",
}

// RandomName returns a display name for players who did not pick one
func RandomName() string {
	return nameAdjectives[rand.Intn(len(nameAdjectives))] +
		nameNouns[rand.Intn(len(nameNouns))] +
		strconv.Itoa(10+rand.Intn(90))
}
