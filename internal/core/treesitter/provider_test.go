//go:build treesitter && cgo

package treesitter

import (
	"errors"
	"testing"
)

func TestExtractCBlockComments(t *testing.T) {
	src := []byte(`/* Programmable interval timer */
#include <kernel/pit.h>

// line comments are skipped
static const char *s = "/* not a comment */";

void pit_init(void) {
	/* set
	   divisor */
	outb(0x43, 0x36);
}
`)
	comms, err := NewProvider().Extract("kernel/pit.c", src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(comms) != 2 {
		t.Fatalf("comments=%+v", comms)
	}
	if comms[0].Text != "/* Programmable interval timer */" || comms[0].SL != 1 {
		t.Fatalf("first=%+v", comms[0])
	}
	if comms[1].SL != 8 || comms[1].EL != 9 || !comms[1].Terminated {
		t.Fatalf("second=%+v", comms[1])
	}
}

func TestExtractHeader(t *testing.T) {
	src := []byte("#ifndef TTY_H\n#define TTY_H\n/* terminal */\nvoid tty_init(void);\n#endif\n")
	comms, err := NewProvider().Extract("include/kernel/tty.h", src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(comms) != 1 || comms[0].Text != "/* terminal */" {
		t.Fatalf("comments=%+v", comms)
	}
}

func TestExtractUnsupported(t *testing.T) {
	_, err := NewProvider().Extract("boot.asm", []byte("; x\n"))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !Enabled() {
		t.Fatal("tagged build reports disabled")
	}
}
