package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveHTMLTags(t *testing.T) {
	assert.Equal(t, "Hello world", RemoveHTMLTags("<i>Hello</i> <b>world</b>"))
	assert.Equal(t, "line one\nline two", RemoveHTMLTags("line one<br>\nline two"))
	assert.Equal(t, "plain", RemoveHTMLTags("plain"))
	assert.Equal(t, "styled", RemoveHTMLTags(`<font color="#fff">styled</font>`))
}

func TestRemovePunctuation(t *testing.T) {
	assert.Equal(t, "Hello world", RemovePunctuation("Hello, world!"))
	assert.Equal(t, "你好世界", RemovePunctuation("你好，世界。"))
	assert.Equal(t, "its fine", RemovePunctuation("it's fine..."))
}

func TestAddSpacesBetweenCJKAndAlphanumeric(t *testing.T) {
	assert.Equal(t, "今天是 Monday 对吧", AddSpacesBetweenCJKAndAlphanumeric("今天是Monday对吧"))
	assert.Equal(t, "版本 2 发布了", AddSpacesBetweenCJKAndAlphanumeric("版本2发布了"))
	assert.Equal(t, "already spaced 的", AddSpacesBetweenCJKAndAlphanumeric("already spaced 的"))
	assert.Equal(t, "no cjk here", AddSpacesBetweenCJKAndAlphanumeric("no cjk here"))
}

func TestCaseConversions(t *testing.T) {
	assert.Equal(t, "HELLO", ToUpperCase("Hello"))
	assert.Equal(t, "hello", ToLowerCase("Hello"))
}
