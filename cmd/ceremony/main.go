package main

import (
	"crypto/rand"
	"fmt"
	"log"
	"os"

	"github.com/kysee/groth16-ceremony/ceremony"
	"github.com/kysee/groth16-ceremony/config"
	"github.com/kysee/groth16-ceremony/qaptest"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	opts, err := config.New(os.Args[2:]...)
	if err != nil {
		log.Fatalf("parsing options: %v", err)
	}
	ceremonyLog := zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Logger()

	switch cmd {
	case "new":
		err = cmdNew(opts, ceremonyLog)
	case "contribute":
		err = cmdContribute(opts, ceremonyLog)
	case "verify":
		err = cmdVerify(opts, ceremonyLog)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ceremony <new|contribute|verify> [--chunk-size N] [--subgroup-check none|full] [--compression compressed|uncompressed] [--correctness none|only-in-group|full]")
}

// cmdNew builds a fresh ceremony over a fixed internal test circuit and
// writes it to params.bin. There is no external circuit-compilation or
// phase-1 file format this core can read yet, so "new" exists to seed a
// ceremony for local experimentation rather than production use.
func cmdNew(opts config.Options, clog zerolog.Logger) error {
	const numConstraints = 64

	log.Println("building QAP fixture...")
	asm, err := qaptest.Circuit(numConstraints)
	if err != nil {
		return err
	}
	phase1, err := qaptest.Phase1(numConstraints)
	if err != nil {
		return err
	}

	mpc, err := ceremony.New(asm, phase1, clog)
	if err != nil {
		return err
	}

	f, err := os.Create("params.bin")
	if err != nil {
		return err
	}
	defer f.Close()

	if err := mpc.Write(f, opts.Compression); err != nil {
		return err
	}
	log.Println("wrote params.bin")
	return nil
}

func cmdContribute(opts config.Options, clog zerolog.Logger) error {
	mpc, err := readParams("params.bin", opts)
	if err != nil {
		return err
	}

	hash, err := mpc.Contribute(rand.Reader, clog)
	if err != nil {
		return err
	}
	log.Printf("contribution hash: %x\n", hash)

	f, err := os.Create("params.bin")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := mpc.Write(f, opts.Compression); err != nil {
		return err
	}
	log.Println("wrote params.bin")
	return nil
}

func cmdVerify(opts config.Options, clog zerolog.Logger) error {
	before, err := readParams("params.bin.before", opts)
	if err != nil {
		return err
	}
	after, err := readParams("params.bin", opts)
	if err != nil {
		return err
	}

	hashes, err := ceremony.Verify(before, after, clog)
	if err != nil {
		return err
	}
	log.Printf("verified %d contribution(s)\n", len(hashes))
	for i, h := range hashes {
		log.Printf("  [%d] %x\n", i, h)
	}
	return nil
}

func readParams(path string, opts config.Options) (*ceremony.MPCParameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ceremony.ReadFast(f, opts.Compression, opts.Correctness, false)
}
