// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"flag"
	"image"
	"image/png"
	"math"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"unsafe"

	"github.com/devblok/respool/src/core"
	"github.com/devblok/respool/src/gfx"
	"github.com/devblok/respool/src/gfx/pool"
	"github.com/devblok/respool/src/gfx/soft"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

var (
	envFile   = flag.String("env", "", "Load configuration from a .env file")
	metrics   = flag.String("metrics", "", "Serve pool metrics on this address")
	unpooled  = flag.Bool("unpooled", false, "Allocate resources every frame instead of pooling them")
	headless  = flag.Bool("headless", false, "Render without opening a window")
	maxFrames = flag.Uint64("frames", 0, "Exit after this many frames, 0 runs until the window is closed")
)

var StaticResources = packr.NewBox("./assets")

func loadConfiguration() core.Configuration {
	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Fatal(err)
	}
	if *metrics != "" {
		cfg.MetricsAddress = *metrics
	}
	return cfg
}

func loadLogo() image.Image {
	img, err := png.Decode(bytes.NewReader(StaticResources.Bytes("logo.png")))
	if err != nil {
		log.WithError(err).Warn("Logo not loaded, drawing without it")
		return nil
	}
	return img
}

func newAllocators(cfg core.Configuration, frames *core.Frames) (gfx.Allocator[*soft.RenderTarget], gfx.Allocator[*soft.Texture]) {
	if *unpooled {
		return gfx.Unpooled[*soft.RenderTarget]{}, gfx.Unpooled[*soft.Texture]{}
	}

	targets, err := pool.New[*soft.RenderTarget](cfg.Pool.RetentionFrames, pool.WithName("render_targets"))
	if err != nil {
		log.Fatal(err)
	}
	textures, err := pool.New[*soft.Texture](cfg.Pool.RetentionFrames, pool.WithName("textures"))
	if err != nil {
		log.Fatal(err)
	}
	frames.Register(targets)
	frames.Register(textures)
	return targets, textures
}

func newWindow(cfg core.RendererConfiguration) *sdl.Window {
	window, err := sdl.CreateWindow("Koru3D",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	return window
}

// present copies a render target onto the window surface.
func present(window *sdl.Window, rt *soft.RenderTarget) error {
	surface, err := window.GetSurface()
	if err != nil {
		return err
	}

	extent := rt.Extent()
	src, err := sdl.CreateRGBSurfaceFrom(unsafe.Pointer(&rt.Color.Pix[0]),
		int32(extent.Width), int32(extent.Height), 32, rt.Color.Stride,
		0x000000ff, 0x0000ff00, 0x00ff0000, 0xff000000)
	if err != nil {
		return err
	}
	defer src.Free()

	if err := src.Blit(nil, surface, nil); err != nil {
		return err
	}
	return window.UpdateSurface()
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	configuration := loadConfiguration()
	if level, err := log.ParseLevel(configuration.LogLevel); err != nil {
		log.WithError(err).Warn("Unknown log level, keeping default")
	} else {
		log.SetLevel(level)
	}

	if configuration.MetricsAddress != "" {
		go func() {
			log.WithField("address", configuration.MetricsAddress).Info("Serving metrics")
			if err := http.ListenAndServe(configuration.MetricsAddress, promhttp.Handler()); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	var frames core.Frames
	targets, textures := newAllocators(configuration, &frames)
	scene := &scene{
		targets:  targets,
		textures: textures,
		logo:     loadLogo(),
	}

	var window *sdl.Window
	if !*headless {
		if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			panic(err)
		}
		defer sdl.Quit()

		window = newWindow(configuration.Renderer)
		defer window.Destroy()
	}

	extent := gfx.Extent2D{
		Width:  uint(configuration.Renderer.ScreenWidth),
		Height: uint(configuration.Renderer.ScreenHeight),
	}
	time := core.NewTime(configuration.Time)
	defer time.Stop()

EventLoop:
	for {
		select {
		case <-time.EventTicker().C:
			if window == nil {
				continue
			}
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						break EventLoop
					}
				case *sdl.QuitEvent:
					break EventLoop
				}
			}
			w, h := window.GetSize()
			extent = gfx.Extent2D{Width: uint(w), Height: uint(h)}
		case <-time.FpsTicker().C:
			err := scene.render(frames.Frame(), extent, func(rt *soft.RenderTarget) error {
				if window == nil {
					return nil
				}
				return present(window, rt)
			})
			if err != nil {
				log.WithError(err).Error("Frame failed")
				break EventLoop
			}
			if err := frames.EndFrame(); err != nil {
				log.WithError(err).Error("Ending frame failed")
				break EventLoop
			}
			if *maxFrames != 0 && frames.Frame() >= *maxFrames {
				break EventLoop
			}
		}
	}

	log.WithField("frames", frames.Frame()).Info("Event loop exited")
	if err := frames.Close(); err != nil {
		log.WithError(err).Error("Releasing pooled resources failed")
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
		f.Close()
	}
}

// scene draws a slowly changing background with the logo on top.
type scene struct {
	targets  gfx.Allocator[*soft.RenderTarget]
	textures gfx.Allocator[*soft.Texture]
	logo     image.Image
}

func (s *scene) render(frame uint64, extent gfx.Extent2D, present func(*soft.RenderTarget) error) (err error) {
	if extent.Empty() {
		return nil
	}

	phase := float64(frame) / 120
	target := soft.RenderTargetDescriptor{
		Extent: extent,
		Depth:  true,
		ClearColor: glm.Vec4{
			float32(0.5 + 0.5*math.Sin(phase)),
			float32(0.5 + 0.5*math.Sin(phase+2*math.Pi/3)),
			float32(0.5 + 0.5*math.Sin(phase+4*math.Pi/3)),
			1,
		},
		ClearDepth: 1,
	}
	rt, err := s.targets.Acquire(target)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.targets.Release(target, rt); err == nil {
			err = releaseErr
		}
	}()

	if s.logo != nil {
		side := extent.Width
		if extent.Height < side {
			side = extent.Height
		}
		side /= 4
		if side > 0 {
			logo := soft.TextureDescriptor{
				Extent: gfx.Extent2D{Width: side, Height: side},
				Source: s.logo,
			}
			tex, err := s.textures.Acquire(logo)
			if err != nil {
				return err
			}
			at := image.Pt(int(extent.Width-side)/2, int(extent.Height-side)/2)
			compositeErr := soft.Composite(rt, tex, at)
			if err := s.textures.Release(logo, tex); err != nil {
				return err
			}
			if compositeErr != nil {
				return compositeErr
			}
		}
	}

	return present(rt)
}
