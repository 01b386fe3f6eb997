package jsonx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "json fence", text: "```json\n{\"items\":[]}\n```", want: `{"items":[]}`},
		{name: "bare fence", text: "here you go\n```\n{\"a\":1}\n```\nthanks", want: `{"a":1}`},
		{name: "prefers json fence", text: "```text\nnope\n```\n```json\n{\"b\":2}\n```", want: `{"b":2}`},
		{name: "raw object", text: `  {"c":3}  `, want: `{"c":3}`},
		{name: "prose around object", text: `Sure! {"d":{"e":"}"}} hope it helps {"x":1}`, want: `{"d":{"e":"}"}}`},
		{name: "escaped quote in string", text: `{"q":"say \"hi\" {"}`, want: `{"q":"say \"hi\" {"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Extract(tc.text)
			require.NoError(t, err)
			require.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "no json here", "{unterminated", "```json\n{bad json}\n```"} {
		_, err := Extract(text)
		require.ErrorIs(t, err, ErrNoObject, text)
	}
}

func TestFirstObjectUnbalanced(t *testing.T) {
	t.Parallel()

	_, ok := FirstObject(`{"a": {"b": 1}`)
	require.False(t, ok)
}
