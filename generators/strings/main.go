// Strings is an example incyte generator plugin. Each test case is a length
// followed by a random lowercase string of that length.
//
// Build it with:
//
//	go build -buildmode=plugin -o strings.so .
//
// and pass it with --custom-generator strings.so.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
)

const (
	minLen = 1
	maxLen = 200000
)

// GenerateInput writes testcases strings to filename.
func GenerateInput(testcases int, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w, rand.New(rand.NewSource(rand.Int63())), testcases); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", filename, err)
	}

	return f.Close()
}

func write(w *bufio.Writer, rng *rand.Rand, testcases int) error {
	fmt.Fprintln(w, testcases)

	buf := make([]byte, 0, maxLen)

	for i := 0; i < testcases; i++ {
		n := minLen + rng.Intn(maxLen-minLen+1)

		buf = buf[:0]
		for j := 0; j < n; j++ {
			buf = append(buf, byte('a'+rng.Intn(26)))
		}

		if _, err := fmt.Fprintf(w, "%d\n%s\n", n, buf); err != nil {
			return fmt.Errorf("write case %d: %w", i+1, err)
		}
	}

	return nil
}

func main() {}
