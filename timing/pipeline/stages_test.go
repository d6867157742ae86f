package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/cache"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var _ = Describe("Pipeline Stages", func() {
	var (
		regFile  *emu.RegFile
		memory   *emu.Memory
		executor *emu.Executor
	)

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		memory = emu.NewMemory()
		executor = emu.NewExecutor(regFile, memory)
	})

	decode := func(text string) pipeline.Slot {
		fetch := pipeline.NewFetchStage(insts.NewProgram(text))
		slot, ok := fetch.Fetch(0)
		Expect(ok).To(BeTrue())

		decoded, err := pipeline.NewDecodeStage(insts.NewDecoder()).Decode(slot)
		Expect(err).NotTo(HaveOccurred())
		return decoded
	}

	Describe("FetchStage", func() {
		var fetchStage *pipeline.FetchStage

		BeforeEach(func() {
			fetchStage = pipeline.NewFetchStage(insts.NewProgram(
				"ADD $r1, $r2, $r3",
				"SUB $r4, $r5, $r6",
			))
		})

		It("should fetch an undecoded instruction", func() {
			slot, ok := fetchStage.Fetch(1)

			Expect(ok).To(BeTrue())
			Expect(slot.Valid).To(BeTrue())
			Expect(slot.Index).To(Equal(1))
			Expect(slot.Inst.Text).To(Equal("SUB $r4, $r5, $r6"))
			Expect(slot.Decoded).To(BeNil())
		})

		It("should report the end of the program", func() {
			_, ok := fetchStage.Fetch(2)
			Expect(ok).To(BeFalse())
			Expect(fetchStage.Len()).To(Equal(2))
		})
	})

	Describe("DecodeStage", func() {
		It("should attach the decoded form", func() {
			slot := decode("add $r1,$r2,$r3")

			Expect(slot.Decoded.Op).To(Equal(insts.OpADD))
			Expect(slot.Text()).To(Equal("ADD $r1, $r2, $r3"))
		})

		It("should return the decoder's error", func() {
			stage := pipeline.NewDecodeStage(insts.NewDecoder())
			_, err := stage.Decode(pipeline.Slot{
				Valid: true,
				Inst:  insts.NewInstruction("JMP 4"),
			})

			Expect(err).To(MatchError(insts.ErrUnknownOpcode))
		})
	})

	Describe("ExecuteStage", func() {
		var executeStage *pipeline.ExecuteStage

		BeforeEach(func() {
			executeStage = pipeline.NewExecuteStage(executor)
		})

		It("should commit an ALU result immediately", func() {
			regFile.WriteReg(2, 10)
			regFile.WriteReg(3, 4)

			slot, err := executeStage.Execute(decode("SUB $r1, $r2, $r3"))

			Expect(err).NotTo(HaveOccurred())
			Expect(slot.Executed).To(BeTrue())
			Expect(regFile.ReadReg(1)).To(Equal(int64(6)))
		})

		It("should commit a store immediately", func() {
			regFile.WriteReg(1, 99)

			slot, err := executeStage.Execute(decode("SW $r1, 3($r0)"))

			Expect(err).NotTo(HaveOccurred())
			Expect(slot.Effect.IsStore).To(BeTrue())
			Expect(memory.Read(3)).To(Equal(int64(99)))
		})

		It("should reject an undecoded occupant", func() {
			_, err := executeStage.Execute(pipeline.Slot{
				Valid: true,
				Inst:  insts.NewInstruction("ADD $r1, $r2, $r3"),
			})

			Expect(err).To(MatchError(ContainSubstring("not decoded")))
		})
	})

	Describe("MemoryStage", func() {
		It("should do nothing without a D-cache", func() {
			stage := pipeline.NewMemoryStage(nil)
			slot, err := pipeline.NewExecuteStage(executor).Execute(decode("LW $r1, 0($r0)"))
			Expect(err).NotTo(HaveOccurred())

			_, ok := stage.Access(slot)
			Expect(ok).To(BeFalse())
		})

		It("should record loads and stores against the D-cache", func() {
			dcache := cache.New(cache.DefaultConfig())
			stage := pipeline.NewMemoryStage(dcache)
			execute := pipeline.NewExecuteStage(executor)

			store, err := execute.Execute(decode("SW $r1, 0($r0)"))
			Expect(err).NotTo(HaveOccurred())
			load, err := execute.Execute(decode("LW $r2, 0($r0)"))
			Expect(err).NotTo(HaveOccurred())

			result, ok := stage.Access(store)
			Expect(ok).To(BeTrue())
			Expect(result.Hit).To(BeFalse())

			result, ok = stage.Access(load)
			Expect(ok).To(BeTrue())
			Expect(result.Hit).To(BeTrue())

			Expect(dcache.Stats().Writes).To(Equal(uint64(1)))
			Expect(dcache.Stats().Reads).To(Equal(uint64(1)))
		})

		It("should skip ALU instructions", func() {
			stage := pipeline.NewMemoryStage(cache.New(cache.DefaultConfig()))
			slot, err := pipeline.NewExecuteStage(executor).Execute(decode("ADD $r1, $r2, $r3"))
			Expect(err).NotTo(HaveOccurred())

			_, ok := stage.Access(slot)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("WritebackStage", func() {
		It("should retire a valid occupant without changing state", func() {
			stage := pipeline.NewWritebackStage(executor)
			regFile.WriteReg(5, 1)

			Expect(stage.Writeback(decode("ADD $r5, $r5, $r5"))).To(BeTrue())
			Expect(regFile.ReadReg(5)).To(Equal(int64(1)))
		})

		It("should ignore an empty slot", func() {
			stage := pipeline.NewWritebackStage(executor)
			Expect(stage.Writeback(pipeline.Slot{})).To(BeFalse())
		})
	})
})
