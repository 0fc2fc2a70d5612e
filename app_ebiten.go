package pufferfish

import (
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
)

// ebitenGame adapts an App to ebiten.Game.
type ebitenGame[S any] struct {
	app    *App[S]
	dev    *EbitenDevice
	poller ebitenPoller
	err    error // draw failure reported by the next Update
}

func (g *ebitenGame[S]) Update() error {
	if g.err != nil {
		return g.err
	}
	if ebiten.IsWindowBeingClosed() {
		g.app.ctx.Quit()
	}
	if g.app.Quitting() {
		return ebiten.Termination
	}
	dt := 1 / float32(ebiten.TPS())
	if err := g.app.update(dt, g.poller.poll()); err != nil {
		return err
	}
	if g.app.Quitting() {
		return ebiten.Termination
	}
	return nil
}

func (g *ebitenGame[S]) Draw(screen *ebiten.Image) {
	if g.err != nil {
		return
	}
	g.dev.SetTarget(screen)
	g.err = g.app.draw()
}

func (g *ebitenGame[S]) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.app.cfg.Resizable {
		g.app.resize(outsideWidth, outsideHeight)
	}
	return g.app.ctx.Size()
}

// Run opens a window and runs the game loop until a callback calls Quit, the
// window is closed, or a callback fails. Shutdown runs before Run returns.
func (a *App[S]) Run() error {
	ebiten.SetWindowTitle(a.cfg.Title)
	ebiten.SetWindowSize(a.cfg.Width, a.cfg.Height)
	ebiten.SetVsyncEnabled(a.cfg.VSync)
	ebiten.SetTPS(a.cfg.TPS)
	ebiten.SetWindowClosingHandled(true)
	if a.cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	a.measuredFPS = ebiten.ActualFPS
	dev := NewEbitenDevice()
	if err := a.Start(dev); err != nil {
		return err
	}
	game := &ebitenGame[S]{app: a, dev: dev}
	err := ebiten.RunGame(game)
	if shutdownErr := a.Shutdown(); err == nil || errors.Is(err, ebiten.Termination) {
		return shutdownErr
	}
	return err
}
