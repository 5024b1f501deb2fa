package randstr

import (
	"crypto/rand"
	"math/big"
)

type Generator struct {
	alphabet []byte
	max      *big.Int
}

func New(alphabet []byte) *Generator {
	return &Generator{
		alphabet: alphabet,
		max:      big.NewInt(int64(len(alphabet))),
	}
}

func (g *Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, g.max)
		if err != nil {
			panic(err)
		}
		b[i] = g.alphabet[n.Int64()]
	}

	return string(b)
}
