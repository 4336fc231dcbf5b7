package util

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestUnifiedStrdate(t *testing.T) {
	assert := assert_.New(t)

	// API timestamp shape
	assert.Equal("20121011", UnifiedStrdate("2012/10/11 13:08:00 +0000"))
	// XML service airtime shape
	assert.Equal("20130407", UnifiedStrdate("07.04.2013 22:00"))
	assert.Equal("20130407", UnifiedStrdate("2013-04-07"))
	assert.Equal("20130407", UnifiedStrdate("20130407"))
	assert.Equal("", UnifiedStrdate("not a date"))
	assert.Equal("", UnifiedStrdate(""))
}
