package store

// Pause opens a history group. Changes made until every outstanding token
// has resumed undo as a single step.
func (m *Memory) Pause() *PauseToken {
	m.mu.Lock()
	m.pauses++
	m.mu.Unlock()
	return NewPauseToken(m.resume)
}

func (m *Memory) resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pauses == 0 {
		return
	}
	m.pauses--
	if m.pauses > 0 {
		return
	}
	if len(m.group) > 0 {
		m.pushLocked(&m.undo, m.group)
		m.redo = nil
	}
	m.group = nil
}

// Paused reports whether a history group is open.
func (m *Memory) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauses > 0
}

func (m *Memory) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0 && m.pauses == 0
}

func (m *Memory) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0 && m.pauses == 0
}

// Undo reverts the latest step. Steps whose targets were removed by another
// session are partially skipped.
func (m *Memory) Undo() bool { return m.travel(&m.undo, &m.redo) }

// Redo reapplies the latest undone step.
func (m *Memory) Redo() bool { return m.travel(&m.redo, &m.undo) }

func (m *Memory) travel(from, to *[][]Op) bool {
	m.mu.Lock()
	if m.pauses > 0 || m.depth > 0 || len(*from) == 0 {
		m.mu.Unlock()
		return false
	}

	entry := (*from)[len(*from)-1]
	*from = (*from)[:len(*from)-1]

	var applied, inverse []Op
	for i := len(entry) - 1; i >= 0; i-- {
		inv, ok := m.applyLocked(entry[i])
		if !ok {
			continue
		}
		applied = append(applied, entry[i])
		inverse = append(inverse, inv...)
	}
	if len(inverse) > 0 {
		m.pushLocked(to, inverse)
	}
	sink := m.sink
	m.mu.Unlock()

	emit(sink, applied)
	return true
}
