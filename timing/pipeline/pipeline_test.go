package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var referenceProgram = []string{
	"LW $r1,0($r0)",
	"LW $r2,4($r0)",
	"ADD $r3,$r1,$r2",
	"SW $r3,8($r0)",
}

func addChain(n int) []*insts.Instruction {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("ADD $r%d,$r%d,$r1", (i%30)+2, (i%30)+1)
	}
	return insts.NewProgram(texts...)
}

var _ = Describe("Pipeline", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		pipe    *pipeline.Pipeline
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		memory = emu.NewMemory()
	})

	Describe("NewPipeline", func() {
		It("should create an idle pipeline", func() {
			pipe = pipeline.NewPipeline(regFile, memory, nil)

			Expect(pipe.PC()).To(BeZero())
			Expect(pipe.Empty()).To(BeTrue())
			Expect(pipe.Halted()).To(BeFalse())
			Expect(pipe.History().Len()).To(BeZero())
		})
	})

	Describe("Run", func() {
		Context("the reference load/add/store program", func() {
			BeforeEach(func() {
				memory.Write(0, 5)
				memory.Write(4, 7)
				pipe = pipeline.NewPipeline(regFile, memory, insts.NewProgram(referenceProgram...))
			})

			It("should reach the expected architectural state in 7 cycles", func() {
				Expect(pipe.Run(context.Background())).To(Succeed())

				Expect(regFile.ReadReg(1)).To(Equal(int64(5)))
				Expect(regFile.ReadReg(2)).To(Equal(int64(7)))
				Expect(regFile.ReadReg(3)).To(Equal(int64(12)))
				Expect(memory.Snapshot()).To(Equal(map[int64]int64{0: 5, 4: 7, 8: 12}))

				stats := pipe.Stats()
				Expect(stats.Cycles).To(Equal(uint64(7)))
				Expect(stats.Instructions).To(Equal(uint64(4)))
				Expect(stats.Fetched).To(Equal(uint64(4)))
				Expect(stats.Loads).To(Equal(uint64(2)))
				Expect(stats.Stores).To(Equal(uint64(1)))
				Expect(stats.ALUOps).To(Equal(uint64(1)))
				Expect(stats.CPI()).To(BeNumerically("~", 1.75))
				Expect(pipe.History().Len()).To(Equal(7))
				Expect(pipe.Halted()).To(BeTrue())
				Expect(pipe.Empty()).To(BeTrue())
			})

			It("should record the stage occupancy of every cycle", func() {
				Expect(pipe.Run(context.Background())).To(Succeed())

				// cycle -> index of the instruction in ID, EX, MEM, WB (-1 when empty)
				expected := [][4]int{
					{0, -1, -1, -1},
					{1, 0, -1, -1},
					{2, 1, 0, -1},
					{3, 2, 1, 0},
					{-1, 3, 2, 1},
					{-1, -1, 3, 2},
					{-1, -1, -1, 3},
				}

				for i, want := range expected {
					record := pipe.History().At(i)
					Expect(record.Cycle).To(Equal(uint64(i + 1)))
					for j, idx := range want {
						view := record.Slot(pipeline.Stage(j + 1))
						if idx < 0 {
							Expect(view.Valid).To(BeFalse(), "cycle %d slot %d", i+1, j+1)
							continue
						}
						Expect(view.Valid).To(BeTrue(), "cycle %d slot %d", i+1, j+1)
						Expect(view.Index).To(Equal(idx), "cycle %d slot %d", i+1, j+1)
					}
				}
			})

			It("should show raw text in ID and decoded text afterwards", func() {
				Expect(pipe.Run(context.Background())).To(Succeed())

				first := pipe.History().At(0).Slot(pipeline.StageID)
				Expect(first.Decoded).To(BeFalse())
				Expect(first.Text).To(Equal("LW $r1,0($r0)"))

				second := pipe.History().At(1).Slot(pipeline.StageEX)
				Expect(second.Decoded).To(BeTrue())
				Expect(second.Text).To(Equal("LW $r1, 0($r0)"))
			})

			It("should commit effects in the execute cycle", func() {
				pipe.RunCycles(2)
				Expect(regFile.ReadReg(1)).To(BeZero())

				pipe.RunCycles(1)
				Expect(regFile.ReadReg(1)).To(Equal(int64(5)))
				Expect(pipe.Slot(pipeline.StageMEM).Index).To(Equal(0))

				// SW executes in cycle 6
				pipe.RunCycles(2)
				_, stored := memory.Peek(8)
				Expect(stored).To(BeFalse())

				pipe.RunCycles(1)
				Expect(memory.Read(8)).To(Equal(int64(12)))

				before := memory.Snapshot()
				regsBefore := regFile.Snapshot()
				Expect(pipe.Run(context.Background())).To(Succeed())
				Expect(memory.Snapshot()).To(Equal(before))
				Expect(regFile.Snapshot()).To(Equal(regsBefore))
			})
		})

		It("should terminate immediately on an empty program", func() {
			pipe = pipeline.NewPipeline(regFile, memory, nil)

			Expect(pipe.Run(context.Background())).To(Succeed())

			Expect(pipe.Stats().Cycles).To(BeZero())
			Expect(pipe.History().Len()).To(BeZero())
			Expect(regFile.Snapshot()).To(HaveKeyWithValue("$r0", int64(0)))
			Expect(memory.Len()).To(BeZero())
		})

		It("should run a single ADD in 4 cycles", func() {
			regFile.WriteReg(2, 10)
			regFile.WriteReg(3, 20)
			pipe = pipeline.NewPipeline(regFile, memory, insts.NewProgram("ADD $r1,$r2,$r3"))

			Expect(pipe.Run(context.Background())).To(Succeed())

			Expect(regFile.ReadReg(1)).To(Equal(int64(30)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(4)))
			pipe.History().Each(func(r pipeline.CycleRecord) bool {
				Expect(r.Slot(pipeline.StageIF).Valid).To(BeFalse())
				return true
			})
		})

		DescribeTable("cycle-count law: N instructions take N+3 cycles",
			func(n int) {
				regFile.WriteReg(1, 1)
				pipe = pipeline.NewPipeline(regFile, memory, addChain(n))

				Expect(pipe.Run(context.Background())).To(Succeed())

				Expect(pipe.Stats().Cycles).To(Equal(uint64(n + 3)))
				Expect(pipe.Stats().Instructions).To(Equal(uint64(n)))
				Expect(pipe.History().Len()).To(Equal(n + 3))

				for _, r := range pipe.History().Records() {
					Expect(r.Slot(pipeline.StageIF).Valid).To(BeFalse())
					Expect(r.Occupancy()).To(BeNumerically("<=", 4))
				}
			},
			Entry("1 instruction", 1),
			Entry("2 instructions", 2),
			Entry("3 instructions", 3),
			Entry("4 instructions", 4),
			Entry("10 instructions", 10),
			Entry("64 instructions", 64),
		)

		It("should never place one instruction in two slots", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(12))
			Expect(pipe.Run(context.Background())).To(Succeed())

			for _, r := range pipe.History().Records() {
				seen := map[int]bool{}
				for _, s := range r.Slots {
					if !s.Valid {
						continue
					}
					Expect(seen).NotTo(HaveKey(s.Index))
					seen[s.Index] = true
				}
			}
		})

		It("should be deterministic", func() {
			run := func() ([]pipeline.CycleRecord, map[string]int64, map[int64]int64) {
				rf := emu.NewRegFile()
				mem := emu.NewMemory()
				mem.Write(0, 5)
				mem.Write(4, 7)
				p := pipeline.NewPipeline(rf, mem, insts.NewProgram(referenceProgram...))
				Expect(p.Run(context.Background())).To(Succeed())
				return p.History().Records(), rf.Snapshot(), mem.Snapshot()
			}

			h1, r1, m1 := run()
			h2, r2, m2 := run()

			Expect(h1).To(Equal(h2))
			Expect(r1).To(Equal(r2))
			Expect(m1).To(Equal(m2))
		})

		It("should not stall on data dependencies", func() {
			// $r2 is read by the ADD one cycle after the LW wrote it.
			memory.Write(0, 9)
			pipe = pipeline.NewPipeline(regFile, memory, insts.NewProgram(
				"LW $r2,0($r0)",
				"ADD $r3,$r2,$r2",
			))

			Expect(pipe.Run(context.Background())).To(Succeed())

			Expect(pipe.Stats().Cycles).To(Equal(uint64(5)))
			Expect(regFile.ReadReg(3)).To(Equal(int64(18)))
		})
	})

	Describe("Failure", func() {
		It("should abort on a malformed instruction keeping earlier effects", func() {
			regFile.WriteReg(2, 1)
			regFile.WriteReg(3, 2)
			pipe = pipeline.NewPipeline(regFile, memory, insts.NewProgram(
				"ADD $r1,$r2,$r3",
				"ADD",
				"SUB $r4,$r3,$r2",
			))

			err := pipe.Run(context.Background())

			var formatErr *insts.FormatError
			Expect(errors.As(err, &formatErr)).To(BeTrue())
			Expect(err).To(MatchError(insts.ErrMissingOperands))
			Expect(err.Error()).To(ContainSubstring("cycle 3"))
			Expect(pipe.Err()).To(Equal(err))
			Expect(pipe.Halted()).To(BeTrue())

			Expect(regFile.ReadReg(1)).To(Equal(int64(3)))
			Expect(regFile.ReadReg(4)).To(BeZero())
			Expect(pipe.History().Len()).To(Equal(2))
		})

		It("should stop at the cycle limit", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(4),
				pipeline.WithMaxCycles(2))

			err := pipe.Run(context.Background())

			Expect(err).To(MatchError(pipeline.ErrCycleLimit))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(2)))
		})

		It("should allow a run that needs exactly the cycle limit", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(4),
				pipeline.WithMaxCycles(7))

			Expect(pipe.Run(context.Background())).To(Succeed())
		})

		It("should honor cancellation between cycles", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			pipe = pipeline.NewPipeline(regFile, memory, addChain(4))

			Expect(pipe.Run(ctx)).To(MatchError(context.Canceled))
			Expect(pipe.Stats().Cycles).To(BeZero())
		})
	})

	Describe("RunCycles", func() {
		It("should report whether the pipeline is still running", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(1))

			Expect(pipe.RunCycles(4)).To(BeTrue())
			Expect(pipe.Slot(pipeline.StageWB).Valid).To(BeTrue())
			Expect(pipe.RunCycles(1)).To(BeFalse())
			Expect(pipe.Stats().Cycles).To(Equal(uint64(4)))
		})
	})

	Describe("Reset", func() {
		It("should allow the program to be replayed", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(3))
			Expect(pipe.Run(context.Background())).To(Succeed())

			pipe.Reset()
			Expect(pipe.Halted()).To(BeFalse())
			Expect(pipe.History().Len()).To(BeZero())
			Expect(pipe.PC()).To(BeZero())

			Expect(pipe.Run(context.Background())).To(Succeed())
			Expect(pipe.Stats().Cycles).To(Equal(uint64(6)))
		})
	})

	Describe("D-cache", func() {
		It("should count memory-stage accesses without changing timing", func() {
			memory.Write(0, 5)
			memory.Write(4, 7)
			pipe = pipeline.NewPipeline(regFile, memory,
				insts.NewProgram(referenceProgram...),
				pipeline.WithDCache(cache.DefaultConfig()))

			Expect(pipe.Run(context.Background())).To(Succeed())

			stats, ok := pipe.DCacheStats()
			Expect(ok).To(BeTrue())
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Writes).To(Equal(uint64(1)))
			Expect(stats.Hits + stats.Misses).To(Equal(uint64(3)))
			Expect(pipe.Stats().Cycles).To(Equal(uint64(7)))
		})

		It("should report no statistics without a D-cache", func() {
			pipe = pipeline.NewPipeline(regFile, memory, nil)
			_, ok := pipe.DCacheStats()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("History", func() {
		It("should expose records by index and the last record", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(2))
			Expect(pipe.Run(context.Background())).To(Succeed())

			h := pipe.History()
			Expect(h.Len()).To(Equal(5))
			Expect(h.At(0).Cycle).To(Equal(uint64(1)))
			Expect(h.At(0).Slot(pipeline.StageID).Index).To(Equal(0))

			last, ok := h.Last()
			Expect(ok).To(BeTrue())
			Expect(last.Cycle).To(Equal(uint64(5)))
			Expect(last.Occupancy()).To(Equal(1))
			Expect(last.Slot(pipeline.StageWB).Index).To(Equal(1))
		})

		It("should have no last record before the first cycle", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(1))
			_, ok := pipe.History().Last()
			Expect(ok).To(BeFalse())
		})

		It("should stop iterating when the callback returns false", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(3))
			Expect(pipe.Run(context.Background())).To(Succeed())

			seen := 0
			pipe.History().Each(func(pipeline.CycleRecord) bool {
				seen++
				return seen < 2
			})
			Expect(seen).To(Equal(2))
		})
	})

	Describe("Options", func() {
		It("should log every cycle at debug level", func() {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf,
				&slog.HandlerOptions{Level: slog.LevelDebug}))

			pipe = pipeline.NewPipeline(regFile, memory, addChain(1),
				pipeline.WithLogger(logger))
			Expect(pipe.Run(context.Background())).To(Succeed())

			Expect(strings.Count(buf.String(), "msg=cycle")).To(Equal(4))
			Expect(buf.String()).To(ContainSubstring("msg=\"pipeline halted\""))
		})

		It("should use the given decoder", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(1),
				pipeline.WithDecoder(insts.NewDecoder()))
			Expect(pipe.Run(context.Background())).To(Succeed())
			Expect(pipe.Stats().Instructions).To(Equal(uint64(1)))
		})
	})

	Describe("Hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks at every cycle end and retirement", func() {
			pipe = pipeline.NewPipeline(regFile, memory, addChain(2))
			pipe.AcceptHook(hook)

			var cycles []uint64
			var retired []int
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(pipe))
				switch ctx.Pos {
				case pipeline.HookPosCycleEnd:
					cycles = append(cycles, ctx.Item.(pipeline.CycleRecord).Cycle)
				case pipeline.HookPosRetire:
					retired = append(retired, ctx.Item.(pipeline.Slot).Index)
				}
			}).Times(7)

			Expect(pipe.Run(context.Background())).To(Succeed())

			Expect(cycles).To(Equal([]uint64{1, 2, 3, 4, 5}))
			Expect(retired).To(Equal([]int{0, 1}))
		})
	})
})
