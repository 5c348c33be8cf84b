// ahxwav renders an AHX module to a WAVE file without any audio output,
// for batch conversion or testing.
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chriskillpack/ahxplayer"
	"github.com/chriskillpack/ahxplayer/cmd/ahxwav/wav"
	"github.com/chriskillpack/ahxplayer/cmd/internal/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ahxwav: ")

	if len(os.Args) < 2 {
		log.Fatal("Missing AHX filename")
	}

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flagHz := flag.Int("hz", 44100, "output sample rate")
	flagSubsong := flag.Int("subsong", 0, "subsong to play (0 = default)")
	flag.Parse()
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}

	outputHz, err := config.OutputHzFromFlag(*flagHz)
	if err != nil {
		log.Fatal(err)
	}

	ahxF, err := ioutil.ReadFile(flag.Args()[0])
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

	subsong, err := config.SubsongFromFlag(*flagSubsong, player.NumSubsongs())
	if err != nil {
		log.Fatal(err)
	}
	if err = player.Play(subsong); err != nil {
		log.Fatal(err)
	}

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	// Listen for SIGINT to allow a clean exit; AHX songs loop forever so
	// this is the only way a render-to-WAV run ends.
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT)

	audioOut := make([]int16, 2048)
	playing := true

	var lastPos ahx.PlayerPosition

	go func() {
		for {
			select {
			case <-c:
				playing = false
			case pos := <-player.PositionCh:
				if lastPos.Position != pos.Position {
					fmt.Printf("%d\n", pos.Position)
				}
				lastPos = pos
			}
		}
	}()

	for playing {
		generated := player.Render(audioOut)
		if err = wavW.WriteFrame(audioOut[:generated*2]); err != nil {
			wavF.Close()
			log.Fatal(err)
		}
	}
	player.Stop()
}
