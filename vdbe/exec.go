package vdbe

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dbsql/dbsql/internal/value"
	"github.com/dbsql/dbsql/storage"
)

// HaltError reports a Halt opcode's P1 error code and P3 message, the way
// a caller distinguishes a deliberate abort (a constraint violation raised
// from codegen) from an executor-internal error (spec §5).
type HaltError struct {
	Code    int
	Message string
}

func (e *HaltError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("halt: code %d", e.Code)
}

// Step runs opcodes starting at the current PC until the program halts,
// errors, or suspends on a Callback with a result row (spec §5: a prepared
// statement's execution is a sequence of Step calls, each returning at
// most one row before the caller asks for the next).
func (v *Vdbe) Step(ctx context.Context) (StepResult, error) {
	if v.State == StateHalt {
		return StepDone, nil
	}
	if v.State == StateError {
		return StepError, v.LastError
	}
	v.State = StateRunning
	v.ResultRow = nil

	for {
		if err := ctx.Err(); err != nil {
			v.State = StateError
			v.LastError = err
			return StepError, err
		}
		if v.PC < 0 || v.PC >= len(v.Program.Ops) {
			v.State = StateHalt
			return StepDone, nil
		}
		instr := v.Program.Ops[v.PC]

		row, err := v.exec1(ctx, instr)
		if err != nil {
			if he, ok := err.(*HaltError); ok && he.Code == 0 {
				v.State = StateHalt
				return StepDone, nil
			}
			v.State = StateError
			v.LastError = err
			return StepError, err
		}
		if row {
			v.PC++
			return StepRow, nil
		}
		if v.State == StateHalt {
			return StepDone, nil
		}
	}
}

// exec1 executes one instruction, advancing v.PC unless the opcode itself
// set it (jumps/Goto/Gosub/Return). It returns row=true when the
// instruction is Callback, NullCallback, or a SortCallback that produced a
// result row.
func (v *Vdbe) exec1(ctx context.Context, instr Instr) (row bool, err error) {
	jumped := false
	jumpTo := func(target int) { v.PC = target; jumped = true }

	switch instr.Op {

	// ---- Control ----
	case Noop:
	case Goto:
		jumpTo(instr.P2)
	case Gosub:
		v.ReturnStack = append(v.ReturnStack, v.PC+1)
		jumpTo(instr.P2)
	case Return:
		n := len(v.ReturnStack)
		if n == 0 {
			return false, fmt.Errorf("vdbe: Return with empty return stack")
		}
		target := v.ReturnStack[n-1]
		v.ReturnStack = v.ReturnStack[:n-1]
		jumpTo(target)
	case Halt:
		v.State = StateHalt
		if instr.P1 != 0 {
			return false, &HaltError{Code: instr.P1, Message: instr.P3}
		}
		return false, &HaltError{Code: 0}
	case If:
		cond, isNull := v.pop().IsTrue()
		if !isNull && cond {
			jumpTo(instr.P2)
		}
	case IfNot:
		cond, isNull := v.pop().IsTrue()
		if !isNull && !cond {
			jumpTo(instr.P2)
		}
	case IsNull:
		if v.pop().IsNull() {
			jumpTo(instr.P2)
		}
	case NotNull:
		if !v.pop().IsNull() {
			jumpTo(instr.P2)
		}

	// ---- Stack ----
	case Integer:
		v.push(value.NewInt(int64(instr.P1)))
	case Real:
		if instr.P4 != nil {
			v.push(*instr.P4)
		} else {
			v.push(value.NewReal(0))
		}
	case String:
		if instr.P4 != nil {
			v.push(*instr.P4)
		} else {
			v.push(value.NewStaticText(instr.P3))
		}
	case Null:
		v.push(value.NewNull())
	case Variable:
		if instr.P1 >= 0 && instr.P1 < len(v.Vars) {
			v.push(v.Vars[instr.P1])
		} else {
			v.push(value.NewNull())
		}
	case Pop:
		n := instr.P1
		if n <= 0 {
			n = 1
		}
		v.popN(n)
	case Dup:
		v.push(v.Stack[len(v.Stack)-1-instr.P1])
	case Pull:
		i := len(v.Stack) - 1 - instr.P1
		val := v.Stack[i]
		v.Stack = append(v.Stack[:i], v.Stack[i+1:]...)
		v.push(val)
	case Push:
		val := v.pop()
		i := len(v.Stack) - instr.P1
		if i < 0 {
			i = 0
		}
		v.Stack = append(v.Stack[:i], append([]value.Value{val}, v.Stack[i:]...)...)
	case MemStore:
		if instr.P1 >= 0 && instr.P1 < len(v.Mem) {
			v.Mem[instr.P1] = v.pop()
		} else {
			v.pop()
		}
	case MemLoad:
		if instr.P1 >= 0 && instr.P1 < len(v.Mem) {
			v.push(v.Mem[instr.P1])
		} else {
			v.push(value.NewNull())
		}
	case Concat:
		b := v.pop()
		a := v.pop()
		if a.IsNull() || b.IsNull() {
			v.push(value.NewNull())
		} else {
			v.push(value.NewDynamicText(a.Text() + b.Text()))
		}

	// ---- Comparison (numeric + text blocks) ----
	case Eq, Ne, Lt, Le, Gt, Ge, StrEq, StrNe, StrLt, StrLe, StrGt, StrGe:
		b := v.pop()
		a := v.pop()
		numeric := instr.Op >= Eq && instr.Op <= Ge
		cmp, ok := value.Compare(a, b, numeric)
		result := ok && compareSatisfies(instr.Op, cmp)
		if instr.P3 == "store" {
			if !ok {
				v.push(value.NewNull())
			} else if result {
				v.push(value.NewInt(1))
			} else {
				v.push(value.NewInt(0))
			}
		} else {
			if !ok {
				if instr.P1 != 0 {
					jumpTo(instr.P2)
				}
			} else if result {
				jumpTo(instr.P2)
			}
		}

	// ---- Arithmetic / bitwise / logic / unary ----
	case Add, Subtract, Multiply, Divide, Remainder:
		b := v.pop()
		a := v.pop()
		v.push(arith(instr.Op, a, b))
	case And, Or:
		b := v.pop()
		a := v.pop()
		v.push(logical(instr.Op, a, b))
	case Negative:
		a := v.pop()
		switch {
		case a.IsNull():
			v.push(value.NewNull())
		case a.IsReal():
			v.push(value.NewReal(-a.Real()))
		default:
			v.push(value.NewInt(-a.Integer()))
		}
	case AbsValue:
		a := v.pop()
		switch {
		case a.IsNull():
			v.push(value.NewNull())
		case a.IsReal():
			r := a.Real()
			if r < 0 {
				r = -r
			}
			v.push(value.NewReal(r))
		default:
			n := a.Integer()
			if n < 0 {
				n = -n
			}
			v.push(value.NewInt(n))
		}
	case Not:
		a := v.pop()
		result, isNull := a.IsTrue()
		if isNull {
			v.push(value.NewNull())
		} else if result {
			v.push(value.NewInt(0))
		} else {
			v.push(value.NewInt(1))
		}
	case BitNot:
		a := v.pop()
		if a.IsNull() {
			v.push(value.NewNull())
		} else {
			v.push(value.NewInt(^a.Integer()))
		}
	case AddImm:
		a := v.pop()
		v.push(value.NewInt(a.Integer() + int64(instr.P1)))
	case ForceInt:
		a := v.pop()
		if a.IsNull() {
			jumpTo(instr.P2)
		} else {
			v.push(value.NewInt(a.Integer()))
		}
	case MustBeInt:
		a := v.top()
		if a.IsNull() {
			return false, fmt.Errorf("vdbe: MustBeInt saw NULL")
		}
		v.Stack[len(v.Stack)-1] = value.NewInt(a.Integer())

	// ---- Record / key encoding ----
	case MakeRecord:
		vals := v.popN(instr.P1)
		rec := value.MakeRecord(vals)
		v.push(value.NewDynamicText(string(rec)))
	case MakeKey:
		rowid := v.pop()
		v.push(value.NewDynamicText(string(value.IntToKey(rowid.Integer()))))
	case MakeIdxKey:
		vals := v.popN(instr.P1)
		rowid := v.pop()
		key := value.MakeIdxKey(vals, rowid.Integer())
		v.push(value.NewDynamicText(string(key)))
	case IncrKey:
		k := v.pop()
		v.push(value.NewDynamicText(string(value.IncrKey([]byte(k.Text())))))

	// ---- Cursor lifecycle ----
	case OpenRead, OpenWrite:
		h, herr := v.Storage.Cursor(ctx, int64(instr.P2), instr.Op == OpenWrite)
		if herr != nil {
			return false, herr
		}
		v.setCursor(instr.P1, &Cursor{Storage: h})
	case OpenTemp:
		root, cerr := v.Storage.CreateTable(ctx)
		if cerr != nil {
			return false, cerr
		}
		h, herr := v.Storage.Cursor(ctx, root, true)
		if herr != nil {
			return false, herr
		}
		v.setCursor(instr.P1, &Cursor{Storage: h})
	case OpenPseudo:
		v.setCursor(instr.P1, &Cursor{IsPseudo: true})
	case SetPseudo:
		data := v.pop()
		key := v.pop()
		c := v.cursor(instr.P1)
		c.PseudoKey = []byte(key.Text())
		c.PseudoData = []byte(data.Text())
	case Close:
		if c := v.cursor(instr.P1); c != nil {
			_ = c.Close()
			v.setCursor(instr.P1, nil)
		}

	// ---- Cursor positioning / iteration ----
	case MoveTo:
		c := v.cursor(instr.P1)
		key := v.pop()
		res, merr := c.Storage.MoveTo(ctx, []byte(key.Text()))
		if merr != nil {
			return false, merr
		}
		c.IsNullRow = res == storage.MoveEOF
		if res != storage.MoveExact {
			jumpTo(instr.P2)
		}
	case MoveLt:
		c := v.cursor(instr.P1)
		key := v.pop()
		if _, merr := c.Storage.MoveTo(ctx, []byte(key.Text())); merr != nil {
			return false, merr
		}
		more, perr := c.Storage.Prev(ctx)
		if perr != nil {
			return false, perr
		}
		c.IsNullRow = !more
		if !more {
			jumpTo(instr.P2)
		}
	case Rewind:
		c := v.cursor(instr.P1)
		more, ferr := c.Storage.First(ctx)
		if ferr != nil {
			return false, ferr
		}
		c.IsNullRow = !more
		if !more {
			jumpTo(instr.P2)
		}
	case Last:
		c := v.cursor(instr.P1)
		more, lerr := c.Storage.Last(ctx)
		if lerr != nil {
			return false, lerr
		}
		c.IsNullRow = !more
		if !more {
			jumpTo(instr.P2)
		}
	case Next:
		c := v.cursor(instr.P1)
		more, nerr := c.Storage.Next(ctx)
		if nerr != nil {
			return false, nerr
		}
		if more {
			jumpTo(instr.P2)
		}
	case Prev:
		c := v.cursor(instr.P1)
		more, perr := c.Storage.Prev(ctx)
		if perr != nil {
			return false, perr
		}
		if more {
			jumpTo(instr.P2)
		}
	case Found:
		c := v.cursor(instr.P1)
		key := v.pop()
		res, ferr := c.Storage.MoveTo(ctx, []byte(key.Text()))
		if ferr != nil {
			return false, ferr
		}
		if res == storage.MoveExact {
			jumpTo(instr.P2)
		}
	case NotFound:
		c := v.cursor(instr.P1)
		key := v.pop()
		res, ferr := c.Storage.MoveTo(ctx, []byte(key.Text()))
		if ferr != nil {
			return false, ferr
		}
		if res != storage.MoveExact {
			jumpTo(instr.P2)
		}
	case Distinct:
		c := v.cursor(instr.P1)
		key := v.pop()
		kb := []byte(key.Text())
		res, derr := c.Storage.MoveTo(ctx, kb)
		if derr != nil {
			return false, derr
		}
		if res == storage.MoveExact {
			jumpTo(instr.P2)
		} else if ierr := c.Storage.Insert(ctx, kb, nil); ierr != nil {
			return false, ierr
		}
	case NotExists:
		c := v.cursor(instr.P1)
		rowid := v.pop()
		res, nerr := c.Storage.MoveTo(ctx, value.IntToKey(rowid.Integer()))
		if nerr != nil {
			return false, nerr
		}
		if res != storage.MoveExact {
			jumpTo(instr.P2)
		}
	case IsUnique:
		c := v.cursor(instr.P1)
		key := v.pop()
		kb := []byte(key.Text())
		res, uerr := c.Storage.MoveTo(ctx, kb)
		if uerr != nil {
			return false, uerr
		}
		if res == storage.MoveExact {
			cmp, cerr := c.Storage.KeyCompare(ctx, kb, 4)
			if cerr != nil {
				return false, cerr
			}
			if cmp == 0 {
				break
			}
		}
		jumpTo(instr.P2)

	// ---- Row-id ----
	case NewRecno:
		c := v.cursor(instr.P1)
		recno, rerr := v.newRecno(ctx, c)
		if rerr != nil {
			return false, rerr
		}
		v.push(value.NewInt(recno))

	// ---- I/O ----
	case RowData:
		c := v.cursor(instr.P1)
		data, derr := v.cursorData(ctx, c)
		if derr != nil {
			return false, derr
		}
		v.push(value.NewEphemeralText(string(data)))
	case RowKey:
		c := v.cursor(instr.P1)
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return false, kerr
		}
		v.push(value.NewEphemeralText(string(key)))
	case Column:
		c := v.cursor(instr.P1)
		nCols, _ := strconv.Atoi(instr.P3)
		data, derr := v.cursorData(ctx, c)
		if derr != nil {
			return false, derr
		}
		if c.IsNullRow {
			v.push(value.NewNull())
		} else {
			v.push(value.Column(data, nCols, instr.P2))
		}
	case Recno:
		c := v.cursor(instr.P1)
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return false, kerr
		}
		v.push(value.NewInt(value.KeyToInt(key)))
	case FullKey:
		c := v.cursor(instr.P1)
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return false, kerr
		}
		v.push(value.NewEphemeralText(string(key)))
	case NullRow:
		c := v.cursor(instr.P1)
		c.IsNullRow = true
	case PutIntKey:
		c := v.cursor(instr.P1)
		data := v.pop()
		rowid := v.pop()
		if perr := c.Storage.Insert(ctx, value.IntToKey(rowid.Integer()), []byte(data.Text())); perr != nil {
			return false, perr
		}
	case PutStrKey:
		c := v.cursor(instr.P1)
		data := v.pop()
		key := v.pop()
		if perr := c.Storage.Insert(ctx, []byte(key.Text()), []byte(data.Text())); perr != nil {
			return false, perr
		}
	case Delete:
		c := v.cursor(instr.P1)
		if derr := c.Storage.Delete(ctx); derr != nil {
			return false, derr
		}
	case IdxPut:
		c := v.cursor(instr.P1)
		key := v.pop()
		if perr := c.Storage.Insert(ctx, []byte(key.Text()), nil); perr != nil {
			return false, perr
		}
	case IdxDelete:
		c := v.cursor(instr.P1)
		key := v.pop()
		if _, merr := c.Storage.MoveTo(ctx, []byte(key.Text())); merr != nil {
			return false, merr
		}
		if derr := c.Storage.Delete(ctx); derr != nil {
			return false, derr
		}
	case IdxRecno:
		c := v.cursor(instr.P1)
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return false, kerr
		}
		v.push(value.NewInt(value.RowidFromIdxKey(key)))
	case IdxGT, IdxGE, IdxLT:
		c := v.cursor(instr.P1)
		key := v.pop()
		kb := []byte(key.Text())
		cmp, cerr := c.Storage.KeyCompare(ctx, kb, 4)
		if cerr != nil {
			return false, cerr
		}
		want := map[Op]func(int) bool{IdxGT: func(c int) bool { return c > 0 }, IdxGE: func(c int) bool { return c >= 0 }, IdxLT: func(c int) bool { return c < 0 }}[instr.Op]
		if want(cmp) {
			jumpTo(instr.P2)
		}
	case IdxIsNull:
		c := v.cursor(instr.P1)
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return false, kerr
		}
		if len(key) > 0 && key[0] == 'a' {
			jumpTo(instr.P2)
		}

	// ---- Schema ----
	case CreateTable:
		root, cerr := v.Storage.CreateTable(ctx)
		if cerr != nil {
			return false, cerr
		}
		v.push(value.NewInt(root))
	case CreateIndex:
		root, cerr := v.Storage.CreateIndex(ctx)
		if cerr != nil {
			return false, cerr
		}
		v.push(value.NewInt(root))
	case Destroy:
		if derr := v.Storage.DropTable(ctx, int64(instr.P1)); derr != nil {
			return false, derr
		}
	case Clear:
		if cerr := v.Storage.ClearTable(ctx, int64(instr.P1)); cerr != nil {
			return false, cerr
		}

	// ---- Transactions ----
	case Transaction:
		if terr := v.Storage.BeginTxn(ctx); terr != nil {
			return false, terr
		}
	case Commit:
		if cerr := v.Storage.CommitTxn(ctx); cerr != nil {
			return false, cerr
		}
	case Rollback:
		if rerr := v.Storage.AbortTxn(ctx); rerr != nil {
			return false, rerr
		}
	case Checkpoint:
		if cerr := v.Storage.Checkpoint(ctx); cerr != nil {
			return false, cerr
		}
	case SetFormatVersion:
		if serr := v.Storage.SetFormatVersion(instr.P1, instr.P2); serr != nil {
			return false, serr
		}
	case SetSchemaSignature:
		if serr := v.Storage.SetSchemaSig(uint32(instr.P1)); serr != nil {
			return false, serr
		}
	case VerifySchemaSignature:
		want, ok := v.Program.SchemaSigs[instr.P1]
		if ok && v.Storage.GetSchemaSig() != want {
			return false, fmt.Errorf("vdbe: schema changed, statement must be re-prepared")
		}
	case ReadCookie:
		switch instr.P1 {
		case 0:
			v.push(value.NewInt(int64(v.Storage.GetSchemaSig())))
		case 1:
			uv, uerr := v.Storage.GetUserVersion()
			if uerr != nil {
				return false, uerr
			}
			v.push(value.NewInt(int64(uv)))
		default:
			return false, fmt.Errorf("vdbe: unknown cookie %d", instr.P1)
		}
	case SetCookie:
		switch instr.P1 {
		case 0:
			if serr := v.Storage.SetSchemaSig(uint32(instr.P2)); serr != nil {
				return false, serr
			}
		case 1:
			if serr := v.Storage.SetUserVersion(int32(instr.P2)); serr != nil {
				return false, serr
			}
		default:
			return false, fmt.Errorf("vdbe: unknown cookie %d", instr.P1)
		}

	// ---- Keylist ----
	case ListWrite:
		v.Keylists.Write(v.pop().Integer())
	case ListRead:
		rowid, ok := v.Keylists.Read()
		if ok {
			v.push(value.NewInt(rowid))
			jumpTo(instr.P2)
		}
	case ListRewind:
		v.Keylists.Rewind()
	case ListReset:
		v.Keylists.Reset()
	case ListPush:
		v.Keylists.Push()
	case ListPop:
		v.Keylists.Pop()

	// ---- Sorter ----
	case SortMakeKey:
		vals := v.popN(instr.P1)
		v.push(value.NewDynamicText(string(makeSortKey(vals))))
	case SortMakeRec:
		vals := v.popN(instr.P1)
		v.push(value.NewDynamicText(string(value.MakeRecord(vals))))
	case SortPut:
		rec := v.pop()
		key := v.pop()
		v.Sorter.Put([]byte(key.Text()), []byte(rec.Text()))
	case Sort:
		v.Sorter.Sort()
	case SortNext:
		if v.Sorter.Next() {
			jumpTo(instr.P2)
		}
	case SortCallback:
		_, rec, ok := v.Sorter.Current()
		if !ok {
			break
		}
		v.ResultRow = value.Columns(rec, instr.P1)
		return true, nil
	case SortReset:
		v.Sorter.Reset()

	// ---- Scalar functions ----
	case Func:
		args := v.popN(instr.P1)
		v.push(scalarFunc(instr.P3, args))

	// ---- Aggregator ----
	case AggReset:
		v.Aggregator.Reset(instr.P1)
	case AggInit:
	case AggFocus:
		key := v.pop()
		found := v.Aggregator.Focus([]byte(key.Text()))
		if found {
			jumpTo(instr.P2)
		}
	case AggFunc:
		args := v.popN(instr.P1)
		col := v.pop().Integer()
		cur := v.Aggregator.Get(int(col))
		v.Aggregator.Set(int(col), accumulate(instr.P3, cur, args))
	case AggSet:
		val := v.pop()
		v.Aggregator.Set(instr.P1, val)
	case AggGet:
		v.push(v.Aggregator.Get(instr.P1))
	case AggNext:
		ok, _ := v.Aggregator.Next()
		if ok {
			jumpTo(instr.P2)
		}

	// ---- Sets ----
	case SetInsert:
		key := v.pop()
		v.Sets.Insert(instr.P1, []byte(key.Text()))
	case SetFound:
		key := v.pop()
		if v.Sets.Found(instr.P1, []byte(key.Text())) {
			jumpTo(instr.P2)
		}
	case SetNotFound:
		key := v.pop()
		if !v.Sets.Found(instr.P1, []byte(key.Text())) {
			jumpTo(instr.P2)
		}
	case SetFirst:
		key, ok := v.Sets.First(instr.P1)
		if ok {
			v.push(value.NewEphemeralText(string(key)))
			jumpTo(instr.P2)
		}
	case SetNext:
		key, ok := v.Sets.Next(instr.P1)
		if ok {
			v.push(value.NewEphemeralText(string(key)))
			jumpTo(instr.P2)
		}

	// ---- Callbacks ----
	case Callback:
		v.ResultRow = v.popN(instr.P1)
		return true, nil
	case NullCallback:
		v.ResultRow = nil
		return true, nil
	case ColumnName:
		if instr.P1 >= 0 {
			for len(v.ColumnNameRow) <= instr.P1 {
				v.ColumnNameRow = append(v.ColumnNameRow, "")
			}
			v.ColumnNameRow[instr.P1] = instr.P3
		}

	// ---- File bulk-load ----
	case FileOpen:
	case FileRead:
		jumpTo(instr.P2)
	case FileColumn:
		v.push(value.NewNull())

	default:
		return false, fmt.Errorf("vdbe: unimplemented opcode %s", instr.Op)
	}

	if !jumped {
		v.PC++
	}
	return false, nil
}

func (v *Vdbe) cursor(n int) *Cursor {
	if n < 0 || n >= len(v.Cursors) {
		return nil
	}
	return v.Cursors[n]
}

func (v *Vdbe) setCursor(n int, c *Cursor) {
	for len(v.Cursors) <= n {
		v.Cursors = append(v.Cursors, nil)
	}
	v.Cursors[n] = c
}

func (v *Vdbe) cursorData(ctx context.Context, c *Cursor) ([]byte, error) {
	if c.IsPseudo {
		return c.PseudoData, nil
	}
	if err := c.flushDeferred(ctx); err != nil {
		return nil, err
	}
	n, err := c.Storage.DataSize(ctx)
	if err != nil {
		return nil, err
	}
	return c.Storage.Data(ctx, 0, n)
}

func (v *Vdbe) cursorKey(ctx context.Context, c *Cursor) ([]byte, error) {
	if c.IsPseudo {
		return c.PseudoKey, nil
	}
	if err := c.flushDeferred(ctx); err != nil {
		return nil, err
	}
	n, err := c.Storage.KeySize(ctx)
	if err != nil {
		return nil, err
	}
	return c.Storage.Key(ctx, 0, n)
}

// newRecno implements NewRecno's max+1-then-random-probe row-id allocation
// (spec §4.5): an empty table gets 1, otherwise the current max row-id
// plus one; only once max+1 overflows does it draw up to 1000 random
// candidates.
func (v *Vdbe) newRecno(ctx context.Context, c *Cursor) (int64, error) {
	more, err := c.Storage.Last(ctx)
	if err != nil {
		return 0, err
	}
	if more {
		key, kerr := v.cursorKey(ctx, c)
		if kerr != nil {
			return 0, kerr
		}
		candidate := value.KeyToInt(key) + 1
		if candidate > 0 {
			return candidate, nil
		}
	} else {
		return 1, nil
	}
	if v.Rand == nil {
		return 0, fmt.Errorf("vdbe: NewRecno needs a random source once max+1 overflows")
	}
	for i := 0; i < 1000; i++ {
		candidate := v.Rand.Int64()
		if candidate == 0 {
			continue
		}
		res, merr := c.Storage.MoveTo(ctx, value.IntToKey(candidate))
		if merr != nil {
			return 0, merr
		}
		if res != storage.MoveExact {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("vdbe: NewRecno exhausted 1000 random probes")
}

func compareSatisfies(op Op, cmp int) bool {
	switch op {
	case Eq, StrEq:
		return cmp == 0
	case Ne, StrNe:
		return cmp != 0
	case Lt, StrLt:
		return cmp < 0
	case Le, StrLe:
		return cmp <= 0
	case Gt, StrGt:
		return cmp > 0
	case Ge, StrGe:
		return cmp >= 0
	}
	return false
}

// arith implements NULL-propagating numeric arithmetic; Divide/Remainder
// by zero yield NULL rather than a runtime error (spec §4.3).
func arith(op Op, a, b value.Value) value.Value {
	if a.IsNull() || b.IsNull() {
		return value.NewNull()
	}
	if a.IsReal() || b.IsReal() {
		x, y := a.Real(), b.Real()
		switch op {
		case Add:
			return value.NewReal(x + y)
		case Subtract:
			return value.NewReal(x - y)
		case Multiply:
			return value.NewReal(x * y)
		case Divide:
			if y == 0 {
				return value.NewNull()
			}
			return value.NewReal(x / y)
		case Remainder:
			if int64(y) == 0 {
				return value.NewNull()
			}
			return value.NewInt(int64(x) % int64(y))
		}
	}
	x, y := a.Integer(), b.Integer()
	switch op {
	case Add:
		return value.NewInt(x + y)
	case Subtract:
		return value.NewInt(x - y)
	case Multiply:
		return value.NewInt(x * y)
	case Divide:
		if y == 0 {
			return value.NewNull()
		}
		return value.NewInt(x / y)
	case Remainder:
		if y == 0 {
			return value.NewNull()
		}
		return value.NewInt(x % y)
	}
	return value.NewNull()
}

// logical implements three-valued AND/OR (spec §4.3): NULL behaves as
// "unknown", so e.g. FALSE AND NULL is FALSE but TRUE AND NULL is NULL.
func logical(op Op, a, b value.Value) value.Value {
	av, aNull := a.IsTrue()
	bv, bNull := b.IsTrue()
	switch op {
	case And:
		if (!aNull && !av) || (!bNull && !bv) {
			return value.NewInt(0)
		}
		if aNull || bNull {
			return value.NewNull()
		}
		return value.NewInt(1)
	case Or:
		if (!aNull && av) || (!bNull && bv) {
			return value.NewInt(1)
		}
		if aNull || bNull {
			return value.NewNull()
		}
		return value.NewInt(0)
	}
	return value.NewNull()
}

// accumulate folds one row's arguments into an aggregate cell per the
// named aggregate function (count, sum/total, min, max, group_concat),
// identified by codegen-supplied function name in P3. Any other name,
// avg included, leaves the cell unchanged.
func accumulate(fn string, cur value.Value, args []value.Value) value.Value {
	switch fn {
	case "count":
		return value.NewInt(cur.Integer() + 1)
	case "sum", "total":
		if len(args) == 0 || args[0].IsNull() {
			return cur
		}
		if cur.IsNull() {
			cur = value.NewInt(0)
		}
		return arith(Add, cur, args[0])
	case "min":
		if len(args) == 0 || args[0].IsNull() {
			return cur
		}
		if cur.IsNull() {
			return args[0]
		}
		if cmp, ok := value.Compare(args[0], cur, args[0].DataType() == value.Numeric); ok && cmp < 0 {
			return args[0]
		}
		return cur
	case "max":
		if len(args) == 0 || args[0].IsNull() {
			return cur
		}
		if cur.IsNull() {
			return args[0]
		}
		if cmp, ok := value.Compare(args[0], cur, args[0].DataType() == value.Numeric); ok && cmp > 0 {
			return args[0]
		}
		return cur
	case "group_concat":
		if len(args) == 0 || args[0].IsNull() {
			return cur
		}
		sep := ","
		if len(args) > 1 && !args[1].IsNull() {
			sep = args[1].Text()
		}
		if cur.IsNull() {
			return value.NewDynamicText(args[0].Text())
		}
		return value.NewDynamicText(cur.Text() + sep + args[0].Text())
	}
	return cur
}
