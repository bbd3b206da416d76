package journal

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddDropsOldest(t *testing.T) {
	j := New[int](3)
	for i := 1; i <= 5; i++ {
		j.Add(i)
	}
	assert.Equal(t, 3, j.Len())
	assert.Equal(t, []int{3, 4, 5}, j.Recent(0))
	assert.Equal(t, []int{4, 5}, j.Recent(2))
	assert.Equal(t, []int{3, 4, 5}, j.Recent(10))
}

func TestRecentIsCopy(t *testing.T) {
	j := New[string](2)
	j.Add("a")
	got := j.Recent(0)
	got[0] = "x"
	assert.Equal(t, []string{"a"}, j.Recent(0))
}

func TestDefaultCapacity(t *testing.T) {
	j := New[int](0)
	for i := range 150 {
		j.Add(i)
	}
	assert.Equal(t, 100, j.Len())
	assert.Equal(t, []int{149}, j.Recent(1))
}

func TestConcurrentAdd(t *testing.T) {
	j := New[int](50)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				j.Add(g*100 + i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, j.Len())
}
