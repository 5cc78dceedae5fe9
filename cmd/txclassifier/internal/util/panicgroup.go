package util

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stellar/go/support/log"
)

var UnrecoverablePanicGroup = panicGroup{
	logPanicsToStdErr:  true,
	exitProcessOnPanic: true,
}

type panicGroup struct {
	log                *log.Entry
	logPanicsToStdErr  bool
	exitProcessOnPanic bool
	panicsCounter      prometheus.Counter
	exit               func(code int)
}

func (pg *panicGroup) Log(log *log.Entry) *panicGroup {
	return &panicGroup{
		log:                log,
		logPanicsToStdErr:  pg.logPanicsToStdErr,
		exitProcessOnPanic: pg.exitProcessOnPanic,
		panicsCounter:      pg.panicsCounter,
		exit:               pg.exit,
	}
}

func (pg *panicGroup) Counter(counter prometheus.Counter) *panicGroup {
	return &panicGroup{
		log:                pg.log,
		logPanicsToStdErr:  pg.logPanicsToStdErr,
		exitProcessOnPanic: pg.exitProcessOnPanic,
		panicsCounter:      counter,
		exit:               pg.exit,
	}
}

// Go runs fn on its own goroutine, reporting any panic it raises.
func (pg *panicGroup) Go(fn func()) {
	go func() {
		defer pg.recoverRoutine(fn)
		fn()
	}()
}

func (pg *panicGroup) recoverRoutine(fn func()) {
	recoverRes := recover()
	if recoverRes == nil {
		return
	}
	cs := getPanicCallStack(recoverRes, fn)
	if len(cs) <= 0 {
		return
	}
	if pg.log != nil {
		for _, line := range cs {
			pg.log.Warn(line)
		}
	}
	if pg.logPanicsToStdErr {
		for _, line := range cs {
			fmt.Fprintln(os.Stderr, line)
		}
	}
	if pg.panicsCounter != nil {
		pg.panicsCounter.Inc()
	}
	if pg.exitProcessOnPanic {
		exit := pg.exit
		if exit == nil {
			exit = os.Exit
		}
		exit(1)
	}
}

func getPanicCallStack(recoverRes any, fn func()) (outCallStack []string) {
	functionName := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	return CallStack(recoverRes, functionName, "(*panicGroup).Go", 10)
}

// CallStack returns an array of strings representing the current call stack. The method is
// tuned for the purpose of panic handler, and used as a helper in constructing the list of entries we want
// to write to the log / stderr / telemetry.
func CallStack(recoverRes any, topLevelFunctionName string, lastCallstackMethod string, unwindStackLines int) (callStack []string) {
	if topLevelFunctionName != "" {
		callStack = append(callStack, fmt.Sprintf("%v when calling %v", recoverRes, topLevelFunctionName))
	} else {
		callStack = append(callStack, fmt.Sprintf("%v", recoverRes))
	}
	// the first line is the goroutine header; frames come in function/file pairs after that
	stackLines := strings.Split(string(debug.Stack()), "\n")
	frames := 0
	for i := 1; i+1 < len(stackLines); i += 2 {
		functionLine := stackLines[i]
		fileLine := strings.TrimSpace(stackLines[i+1])
		if frames >= unwindStackLines || strings.Contains(functionLine, lastCallstackMethod) {
			break
		}
		if strings.HasPrefix(functionLine, "runtime/") || strings.HasPrefix(functionLine, "panic(") {
			continue
		}
		if idx := strings.LastIndex(fileLine, " +0x"); idx > 0 {
			fileLine = fileLine[:idx]
		}
		callStack = append(callStack, fmt.Sprintf("%s (%s)", functionLine, fileLine))
		frames++
	}
	return callStack
}
