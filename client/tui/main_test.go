package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	progress, accuracy := score("fmt.Println()", "fmt.Println()")
	assert.Equal(t, 13, progress)
	assert.Equal(t, 100.0, accuracy)

	progress, accuracy = score("abcd", "abxd")
	assert.Equal(t, 3, progress)
	assert.Equal(t, 75.0, accuracy)

	progress, accuracy = score("abc", "")
	assert.Zero(t, progress)
	assert.Zero(t, accuracy)
}

func TestWPM(t *testing.T) {
	assert.Equal(t, 60.0, wpm(300, time.Minute))
	assert.Zero(t, wpm(10, 0))
}
