package main

import (
	"flag"
	"io/ioutil"
	"log"

	"github.com/chriskillpack/ahxplayer"
	"github.com/chriskillpack/ahxplayer/cmd/internal/config"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagVolume   = flag.Int("volume", 256, "master volume, 0-256")
	flagStartPos = flag.Int("start", 0, "starting position in the song, clamped to song max")
	flagNoUI     = flag.Bool("noui", false, "disable the live tracker display")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ahxplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing AHX filename")
	}

	outputHz, err := config.OutputHzFromFlag(*flagHz)
	if err != nil {
		log.Fatal(err)
	}
	volume, err := config.MasterVolumeFromFlag(*flagVolume)
	if err != nil {
		log.Fatal(err)
	}

	ahxF, err := ioutil.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	player, err := ahx.NewPlayer(outputHz)
	if err != nil {
		log.Fatal(err)
	}
	if err = player.LoadSong(ahxF); err != nil {
		log.Fatal(err)
	}
	player.SetMasterVolume(volume)

	if err = player.Play(0); err != nil {
		log.Fatal(err)
	}
	for i := 0; i < *flagStartPos; i++ {
		player.NextPattern()
	}

	play(player, *flagNoUI)
}
