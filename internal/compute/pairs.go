package compute

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrPairOverflow means the GPU found more pairs than the output buffer holds;
// the result would be incomplete.
var ErrPairOverflow = errors.New("pair buffer overflow")

// BoundingSphere is packed as vec4: xyz = center, w = radius.
type BoundingSphere struct {
	X, Y, Z float32
	Radius  float32
}

// Pair holds two sphere indices with A < B.
type Pair struct {
	A, B uint32
}

const pairShader = `
struct Sphere {
    pos: vec3<f32>,
    radius: f32,
}

struct Pair {
    a: u32,
    b: u32,
}

@group(0) @binding(0) var<storage, read> spheres: array<Sphere>;
@group(0) @binding(1) var<storage, read_write> pairs: array<Pair>;
@group(0) @binding(2) var<storage, read_write> pairCount: atomic<u32>;
@group(0) @binding(3) var<uniform> sphereCount: u32;

// One thread per sphere, tested against every higher index.
@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let i = global_id.x;
    if (i >= sphereCount) {
        return;
    }
    let a = spheres[i];
    for (var j = i + 1u; j < sphereCount; j = j + 1u) {
        let b = spheres[j];
        let diff = a.pos - b.pos;
        let reach = a.radius + b.radius;
        if (dot(diff, diff) <= reach * reach) {
            let idx = atomicAdd(&pairCount, 1u);
            if (idx < arrayLength(&pairs)) {
                pairs[idx] = Pair(i, j);
            }
        }
    }
}
`

// PairFinder reports overlapping bounding spheres on the GPU. Buffers and the
// pipeline are built once and reused every call.
type PairFinder struct {
	system *System

	layout         *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	shader         *wgpu.ShaderModule
	pipeline       *wgpu.ComputePipeline

	sphereBuffer *Buffer
	pairBuffer   *Buffer
	countBuffer  *Buffer
	sizeBuffer   *Buffer

	maxSpheres uint32
	maxPairs   uint32
}

// NewPairFinder allocates GPU buffers for up to maxSpheres inputs and maxPairs
// outputs. Returns ErrUnavailable when compute was never initialized.
func NewPairFinder(maxSpheres, maxPairs uint32) (*PairFinder, error) {
	sys := Get()
	if sys == nil {
		return nil, ErrUnavailable
	}
	pf := &PairFinder{system: sys, maxSpheres: maxSpheres, maxPairs: maxPairs}
	if err := pf.build(); err != nil {
		pf.Release()
		return nil, fmt.Errorf("create pair finder: %w", err)
	}
	return pf, nil
}

func (pf *PairFinder) build() error {
	sys := pf.system
	var err error

	if pf.sphereBuffer, err = sys.CreateBuffer("spheres", uint64(pf.maxSpheres)*16,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	if pf.pairBuffer, err = sys.CreateBuffer("pairs", uint64(pf.maxPairs)*8,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc); err != nil {
		return err
	}
	if pf.countBuffer, err = sys.CreateBuffer("pairCount", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}
	// Uniform buffers need 16-byte sizing.
	if pf.sizeBuffer, err = sys.CreateBuffer("sphereCount", 16,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return err
	}

	pf.layout, err = sys.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "pairs_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}},
			{Binding: 1, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 2, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: wgpu.ShaderStageCompute,
				Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	pf.pipelineLayout, err = sys.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "pairs_pipeline_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{pf.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	pf.shader, err = sys.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "pairs_shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: pairShader},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	pf.pipeline, err = sys.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "pairs_pipeline",
		Layout: pf.pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     pf.shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

// MaxSpheres is the input capacity.
func (pf *PairFinder) MaxSpheres() int {
	return int(pf.maxSpheres)
}

// FindPairs returns every overlapping sphere pair sorted by (A, B), the order an
// i<j double loop would visit them in.
func (pf *PairFinder) FindPairs(spheres []BoundingSphere) ([]Pair, error) {
	if len(spheres) < 2 {
		return nil, nil
	}
	if uint32(len(spheres)) > pf.maxSpheres {
		return nil, fmt.Errorf("find pairs: %d spheres exceed capacity %d", len(spheres), pf.maxSpheres)
	}

	sys := pf.system
	count := uint32(len(spheres))
	sys.WriteBuffer(pf.sphereBuffer, 0, ToBytes(spheres))
	sys.WriteBuffer(pf.countBuffer, 0, ToBytes([]uint32{0}))
	sys.WriteBuffer(pf.sizeBuffer, 0, ToBytes([]uint32{count, 0, 0, 0}))

	if err := pf.dispatch(count); err != nil {
		return nil, fmt.Errorf("find pairs: %w", err)
	}

	countData, err := sys.ReadBuffer(pf.countBuffer, 4)
	if err != nil {
		return nil, fmt.Errorf("find pairs: %w", err)
	}
	found := fromBytes[uint32](countData)[0]
	if found == 0 {
		return nil, nil
	}
	if found > pf.maxPairs {
		return nil, fmt.Errorf("find pairs: %w (%d > %d)", ErrPairOverflow, found, pf.maxPairs)
	}

	pairData, err := sys.ReadBuffer(pf.pairBuffer, uint64(found)*8)
	if err != nil {
		return nil, fmt.Errorf("find pairs: %w", err)
	}
	pairs := make([]Pair, found)
	copy(pairs, fromBytes[Pair](pairData))
	SortPairs(pairs)
	return pairs, nil
}

func (pf *PairFinder) dispatch(count uint32) error {
	device := pf.system.device

	bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "pairs_bindgroup",
		Layout: pf.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: pf.sphereBuffer.buffer, Size: pf.sphereBuffer.size},
			{Binding: 1, Buffer: pf.pairBuffer.buffer, Size: pf.pairBuffer.size},
			{Binding: 2, Buffer: pf.countBuffer.buffer, Size: pf.countBuffer.size},
			{Binding: 3, Buffer: pf.sizeBuffer.buffer, Size: pf.sizeBuffer.size},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pf.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups((count+255)/256, 1, 1)
	pass.End()
	pass.Release()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	defer commands.Release()

	pf.system.queue.Submit(commands)
	return nil
}

// Release frees GPU resources. Safe on a partially built finder.
func (pf *PairFinder) Release() {
	for _, b := range []*Buffer{pf.sphereBuffer, pf.pairBuffer, pf.countBuffer, pf.sizeBuffer} {
		if b != nil {
			b.Release()
		}
	}
	if pf.pipeline != nil {
		pf.pipeline.Release()
	}
	if pf.shader != nil {
		pf.shader.Release()
	}
	if pf.pipelineLayout != nil {
		pf.pipelineLayout.Release()
	}
	if pf.layout != nil {
		pf.layout.Release()
	}
	*pf = PairFinder{}
}

// FindPairsCPU is the reference implementation of the shader.
func FindPairsCPU(spheres []BoundingSphere) []Pair {
	var pairs []Pair
	for i := range spheres {
		a := spheres[i]
		for j := i + 1; j < len(spheres); j++ {
			b := spheres[j]
			dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
			reach := a.Radius + b.Radius
			if dx*dx+dy*dy+dz*dz <= reach*reach {
				pairs = append(pairs, Pair{A: uint32(i), B: uint32(j)})
			}
		}
	}
	return pairs
}

// SortPairs orders pairs by A then B.
func SortPairs(pairs []Pair) {
	slices.SortFunc(pairs, func(x, y Pair) int {
		if x.A != y.A {
			return int(x.A) - int(y.A)
		}
		return int(x.B) - int(y.B)
	})
}
