package neoreel_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/kevin-cantwell/neoreel"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("RawVideoReader", func() {
	It("reads whole frames until a short read", func() {
		data := solidFrames(2, 3, 2, func(i int) [3]byte { return [3]byte{byte(i), 0, 0} })
		data = append(data, 1, 2, 3, 4)
		r := &neoreel.RawVideoReader{Reader: bytes.NewReader(data), Width: 3, Height: 2}

		for i := 0; i < 2; i++ {
			f, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Pix).To(HaveLen(18))
			Expect(f.Pix[0]).To(Equal(byte(i)))
		}
		_, err := r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("passes other errors through", func() {
		r := &neoreel.RawVideoReader{Reader: &errReader{errBoom}, Width: 3, Height: 2}
		_, err := r.Next()
		Expect(err).To(MatchError(errBoom))
	})
})

var _ = Describe("FFmpegDecoder", func() {
	It("asks ffmpeg for rgb24 rawvideo at the sampling rate, without audio or subtitles", func() {
		args := neoreel.FFmpegDecoder{}.Command("clip.mp4", 24).GetArgs()
		Expect(args).To(Equal([]string{
			"-i", "clip.mp4",
			"-an",
			"-f", "image2pipe",
			"-pix_fmt", "rgb24",
			"-r", "24",
			"-sn",
			"-vcodec", "rawvideo",
			"pipe:",
		}))
	})

	It("follows the configured rate", func() {
		args := neoreel.FFmpegDecoder{}.Command("clip.mp4", 12).GetArgs()
		Expect(args).To(ContainElement("12"))
		Expect(args).NotTo(ContainElement("24"))
	})
})

var _ = Describe("OutputName", func() {
	It("strips the directory and the last extension", func() {
		Expect(neoreel.OutputName("videos/bad.apple.mp4")).To(Equal("bad.apple"))
		Expect(neoreel.OutputName("rick_roll.webm")).To(Equal("rick_roll"))
		Expect(neoreel.OutputName("clip")).To(Equal("clip"))
		Expect(neoreel.OutputName(".hidden")).To(Equal(".hidden"))
	})
})

var _ = Describe("Extractor", func() {
	var (
		dir     string
		dst     string
		prober  *fakeProber
		decoder *fakeDecoder
		ex      *neoreel.Extractor
		opened  []*neoreel.BufferReader
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "neoreel")
		Expect(err).NotTo(HaveOccurred())
		dst = filepath.Join(dir, "out", "clip.raw")

		prober = &fakeProber{}
		decoder = &fakeDecoder{}
		ex = &neoreel.Extractor{
			Prober:  prober,
			Decoder: decoder,
			Rate:    24,
			Logger:  log.New(io.Discard),
		}
	})

	AfterEach(func() {
		for _, r := range opened {
			r.Close()
		}
		opened = nil
		os.RemoveAll(dir)
	})

	readBack := func() *neoreel.BufferReader {
		r, err := neoreel.OpenBuffer(dst)
		Expect(err).NotTo(HaveOccurred())
		opened = append(opened, r)
		return r
	}

	It("stores 24 solid thumbnails for one second of 30fps 16x9 video", func() {
		prober.info = neoreel.VideoInfo{Frames: 30, Width: 16, Height: 9, FPS: 30}
		decoder.stream = solidFrames(24, 16, 9, func(int) [3]byte { return [3]byte{200, 100, 50} })

		res, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoder.rate).To(Equal(24))
		Expect(decoder.closed).To(BeTrue())
		Expect(res.Frames).To(Equal(24))
		Expect(res.NativeFrames).To(Equal(30))
		Expect(res.Output).To(Equal(dst))

		info, err := os.Stat(dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(Equal(int64(24 * 192)))

		r := readBack()
		Expect(r.Len()).To(Equal(24))
		Expect(r.Len()).To(BeNumerically("<=", res.NativeFrames))
		for i := 0; i < r.Len(); i++ {
			f := r.Frame(i)
			for p := 0; p < neoreel.FrameSize; p += 3 {
				Expect(int(f[p+0])).To(BeNumerically("~", 200, 1))
				Expect(int(f[p+1])).To(BeNumerically("~", 100, 1))
				Expect(int(f[p+2])).To(BeNumerically("~", 50, 1))
			}
		}
	})

	It("keeps frames apart for two seconds of square 24fps video", func() {
		prober.info = neoreel.VideoInfo{Frames: 48, Width: 64, Height: 64, FPS: 24}
		decoder.stream = solidFrames(48, 64, 64, func(i int) [3]byte {
			v := byte(i * 5)
			return [3]byte{v, v, v}
		})

		res, err := ex.Extract(context.Background(), "marker.mkv", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(48))

		r := readBack()
		Expect(r.Len()).To(Equal(48))
		for i := 1; i < r.Len(); i++ {
			Expect(r.Frame(i).Brightness()).To(BeNumerically(">", r.Frame(i-1).Brightness()))
		}
	})

	It("writes nothing when the source cannot be opened", func() {
		prober.err = os.ErrNotExist
		_, err := ex.Extract(context.Background(), "missing.mp4", dst)

		var openErr *neoreel.OpenError
		Expect(errors.As(err, &openErr)).To(BeTrue())
		Expect(openErr.Path).To(Equal("missing.mp4"))
		Expect(dst).NotTo(BeAnExistingFile())
		Expect(filepath.Dir(dst)).NotTo(BeADirectory())
	})

	It("reports missing sources from the ffprobe prober without running it", func() {
		_, err := neoreel.VidioProber{}.Probe(filepath.Join(dir, "missing.mp4"))
		var openErr *neoreel.OpenError
		Expect(errors.As(err, &openErr)).To(BeTrue())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})

	It("removes the output when the decoder cannot start", func() {
		prober.info = neoreel.VideoInfo{Frames: 10, Width: 4, Height: 4, FPS: 24}
		decoder.startErr = errBoom

		_, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).To(MatchError(errBoom))
		Expect(dst).NotTo(BeAnExistingFile())
	})

	It("removes the output when the stream fails midway", func() {
		prober.info = neoreel.VideoInfo{Frames: 10, Width: 4, Height: 4, FPS: 24}
		decoder.stream = solidFrames(3, 4, 4, func(int) [3]byte { return [3]byte{1, 2, 3} })
		decoder.readErr = errBoom

		_, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).To(MatchError(errBoom))
		Expect(decoder.closed).To(BeTrue())
		Expect(dst).NotTo(BeAnExistingFile())
	})

	It("removes the output when the decoder exits with an error", func() {
		prober.info = neoreel.VideoInfo{Frames: 10, Width: 4, Height: 4, FPS: 24}
		decoder.stream = solidFrames(3, 4, 4, func(int) [3]byte { return [3]byte{1, 2, 3} })
		decoder.closeErr = errBoom

		_, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).To(MatchError(errBoom))
		Expect(dst).NotTo(BeAnExistingFile())
	})

	It("removes the output when cancelled midway", func() {
		prober.info = neoreel.VideoInfo{Frames: 30, Width: 4, Height: 4, FPS: 24}
		decoder.stream = solidFrames(5, 4, 4, func(int) [3]byte { return [3]byte{1, 2, 3} })
		decoder.block = true
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ex.OnFrame = func(i int) {
			if i == 2 {
				cancel()
			}
		}

		_, err := ex.Extract(ctx, "clip.mp4", dst)
		Expect(err).To(MatchError(context.Canceled))
		Expect(decoder.closed).To(BeTrue())
		Expect(dst).NotTo(BeAnExistingFile())
		Expect(dst + neoreel.PartialSuffix).NotTo(BeAnExistingFile())
	})

	It("writes nothing when already cancelled", func() {
		prober.info = neoreel.VideoInfo{Frames: 10, Width: 4, Height: 4, FPS: 24}
		decoder.block = true
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := ex.Extract(ctx, "clip.mp4", dst)
		Expect(err).To(MatchError(context.Canceled))
		Expect(dst).NotTo(BeAnExistingFile())
		Expect(dst + neoreel.PartialSuffix).NotTo(BeAnExistingFile())
	})

	It("ignores a trailing partial frame", func() {
		prober.info = neoreel.VideoInfo{Frames: 10, Width: 4, Height: 4, FPS: 24}
		decoder.stream = append(solidFrames(3, 4, 4, func(int) [3]byte { return [3]byte{1, 2, 3} }), make([]byte, 20)...)

		res, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(3))
		Expect(readBack().Len()).To(Equal(3))
	})

	It("stores every frame the decoder emits, even beyond the native count", func() {
		prober.info = neoreel.VideoInfo{Frames: 12, Width: 4, Height: 4, FPS: 12}
		decoder.stream = solidFrames(24, 4, 4, func(int) [3]byte { return [3]byte{9, 9, 9} })

		res, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(24))
		Expect(readBack().Len()).To(Equal(24))
	})

	It("produces an empty buffer from an empty stream", func() {
		prober.info = neoreel.VideoInfo{Frames: 0, Width: 4, Height: 4}

		res, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(0))
		Expect(readBack().Len()).To(Equal(0))
	})

	It("reports progress", func() {
		prober.info = neoreel.VideoInfo{Frames: 3, Width: 4, Height: 4, FPS: 24}
		decoder.stream = solidFrames(3, 4, 4, func(int) [3]byte { return [3]byte{1, 2, 3} })
		var probed neoreel.VideoInfo
		var seen []int
		ex.OnProbe = func(info neoreel.VideoInfo) { probed = info }
		ex.OnFrame = func(i int) { seen = append(seen, i) }

		_, err := ex.Extract(context.Background(), "clip.mp4", dst)
		Expect(err).NotTo(HaveOccurred())
		Expect(probed).To(Equal(prober.info))
		Expect(seen).To(Equal([]int{0, 1, 2}))
	})
})
