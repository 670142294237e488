package run

import (
	"time"

	"github.com/John-Robertt/sudocwarn/internal/config"
	"github.com/John-Robertt/sudocwarn/internal/domain"
)

// Observer 用于把“运行进度/文件结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出。
// - 文件严格顺序处理，事件来自同一个 goroutine。
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnNoInput 在 glob 没有匹配到任何文件时调用（随后仍会写出空表）。
	OnNoInput(pattern string)
	// OnFileStart 在读取某个文件之前调用；idx 从 1 开始。
	OnFileStart(idx, total int, f domain.InputFile)
	// OnFileDone 在某个文件处理完成（或按 skip 策略跳过）后调用。
	OnFileDone(idx, total int, res domain.FileResult, dur time.Duration)
	// OnDone 在输出写完后调用。
	OnDone(rr domain.RunReport)
}

// nopObserver 让 Execute 内部不必到处判空。
type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig)                        {}
func (nopObserver) OnNoInput(string)                                      {}
func (nopObserver) OnFileStart(int, int, domain.InputFile)                {}
func (nopObserver) OnFileDone(int, int, domain.FileResult, time.Duration) {}
func (nopObserver) OnDone(domain.RunReport)                               {}
