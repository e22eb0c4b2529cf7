package anogo_test

import (
	"math"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/anogo"
	"github.com/YuminosukeSato/anogo/core/detector"
	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"

	_ "github.com/YuminosukeSato/anogo/tabular/hbos"
	_ "github.com/YuminosukeSato/anogo/tabular/iforest"
)

const (
	nCluster = 180
	nPlanted = 20
)

// contaminatedData は密なクラスタ 180 行と遠方の外れ値 20 行を積んだ
// 200x2 の行列を返す。外れ値は末尾に並ぶ。
func contaminatedData(seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, 0, (nCluster+nPlanted)*2)
	for i := 0; i < nCluster; i++ {
		data = append(data, rng.NormFloat64()*0.5, rng.NormFloat64()*0.5)
	}
	for i := 0; i < nPlanted; i++ {
		data = append(data, 8+rng.Float64(), 8+rng.Float64())
	}
	return mat.NewDense(nCluster+nPlanted, 2, data)
}

// detectorParams は決定的なフィットに必要なアルゴリズム固有の
// パラメータを補う。
func detectorParams(name string) anogo.Params {
	params := anogo.Params{"contamination": 0.1}
	if name == "IsolationForest" {
		params["random_state"] = 17
	}
	return params
}

func TestRegisteredAlgorithms(t *testing.T) {
	assert.Equal(t, []string{"HBOS", "IsolationForest"}, anogo.Algorithms())
}

// 登録された全アルゴリズムが同一のライフサイクル契約を満たす
func TestDetectorContract(t *testing.T) {
	X := contaminatedData(31)

	for _, name := range anogo.Algorithms() {
		t.Run(name, func(t *testing.T) {
			d, err := anogo.NewDetector(name, detectorParams(name))
			require.NoError(t, err)
			assert.Equal(t, name, d.Name())
			assert.Equal(t, 0.1, d.Contamination())

			// 型名は {Name}Adapter の規約に従う
			assert.Equal(t, name+detector.AdapterSuffix, reflect.TypeOf(d).Elem().Name())

			// フィット前は全操作がガードされる
			assert.False(t, d.IsFitted())
			var nf *anogoErrors.NotFittedError
			_, err = d.Threshold()
			require.True(t, anogoErrors.As(err, &nf))
			_, err = d.PredictScore(X)
			require.True(t, anogoErrors.As(err, &nf))
			_, err = d.Predict(X)
			require.True(t, anogoErrors.As(err, &nf))
			err = d.Save(filepath.Join(t.TempDir(), "unfitted"))
			require.True(t, anogoErrors.As(err, &nf))

			require.NoError(t, d.Fit(X, nil))
			require.True(t, d.IsFitted())

			threshold, err := d.Threshold()
			require.NoError(t, err)
			require.False(t, math.IsNaN(threshold) || math.IsInf(threshold, 0))

			scores, err := d.PredictScore(X)
			require.NoError(t, err)
			require.Len(t, scores, nCluster+nPlanted)

			var clusterMean, plantedMean float64
			for i, s := range scores {
				if i < nCluster {
					clusterMean += s / nCluster
				} else {
					plantedMean += s / nPlanted
				}
			}
			assert.Greater(t, plantedMean, clusterMean,
				"planted outliers must score above the cluster on average")

			preds, err := d.Predict(X)
			require.NoError(t, err)
			require.Len(t, preds, nCluster+nPlanted)
			flagged := 0
			for _, p := range preds {
				require.True(t, p == 0 || p == 1, "prediction %d outside {0, 1}", p)
				flagged += p
			}
			// 0.9 分位点より真に大きいサンプルは高々 10% しかない
			assert.GreaterOrEqual(t, flagged, 1)
			assert.LessOrEqual(t, flagged, nPlanted)

			// Predict はフィット済み閾値での PredictWithThreshold と一致する
			same, err := d.PredictWithThreshold(X, threshold)
			require.NoError(t, err)
			assert.Equal(t, preds, same)

			all, err := d.PredictWithThreshold(X, threshold-1e9)
			require.NoError(t, err)
			none, err := d.PredictWithThreshold(X, threshold+1e9)
			require.NoError(t, err)
			assert.Equal(t, nCluster+nPlanted, sum(all))
			assert.Equal(t, 0, sum(none))

			_, err = d.PredictWithThreshold(X, math.NaN())
			var valErr *anogoErrors.ValueError
			require.True(t, anogoErrors.As(err, &valErr))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	X := contaminatedData(37)

	for _, name := range anogo.Algorithms() {
		t.Run(name, func(t *testing.T) {
			params := detectorParams(name)
			params["contamination"] = 0.15
			d, err := anogo.NewDetector(name, params)
			require.NoError(t, err)
			require.NoError(t, d.Fit(X, nil))

			threshold, err := d.Threshold()
			require.NoError(t, err)
			want, err := d.PredictScore(X)
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "model")
			require.NoError(t, d.Save(path))

			// デフォルト構成で作った器に復元する
			restored, err := anogo.NewDetector(name, nil)
			require.NoError(t, err)
			require.NoError(t, restored.Load(path))
			require.True(t, restored.IsFitted())

			gotThreshold, err := restored.Threshold()
			require.NoError(t, err)
			assert.Equal(t, threshold, gotThreshold)
			assert.Equal(t, 0.15, restored.Contamination(), "contamination restored from the container")

			got, err := restored.PredictScore(X)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			meta, err := anogo.ReadMetadata(path)
			require.NoError(t, err)
			assert.Equal(t, name, meta.Algorithm)
			assert.Equal(t, name+detector.AdapterSuffix, meta.ClassName)
			assert.Equal(t, anogo.Version, meta.Version)
			assert.Equal(t, 0.15, meta.Contamination)
			require.NotNil(t, meta.Threshold)
			assert.Equal(t, threshold, *meta.Threshold)
		})
	}
}

func TestFactoryErrors(t *testing.T) {
	t.Run("unknown algorithm lists registered", func(t *testing.T) {
		_, err := anogo.NewDetector("LOF", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown algorithm "LOF"`)
		assert.Contains(t, err.Error(), "HBOS")
		assert.Contains(t, err.Error(), "IsolationForest")
	})

	t.Run("unknown parameter", func(t *testing.T) {
		_, err := anogo.NewDetector("IsolationForest", anogo.Params{"n_tree": 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown parameter "n_tree"`)
	})

	t.Run("invalid contamination", func(t *testing.T) {
		_, err := anogo.NewDetector("HBOS", anogo.Params{"contamination": 1.5})
		var valErr *anogoErrors.ValidationError
		require.True(t, anogoErrors.As(err, &valErr))
		assert.Equal(t, "contamination", valErr.ParamName)
	})
}

func TestMatrixHelper(t *testing.T) {
	m, err := anogo.Matrix([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)

	// 一次元入力は 1 特徴量の列に畳まれる
	v, err := anogo.Matrix([]float64{1, 2, 3})
	require.NoError(t, err)
	rows, cols = v.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 1, cols)

	_, err = anogo.Matrix(42)
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, detector.LibraryVersion, anogo.Version)
	assert.NotEmpty(t, anogo.Version)
}

func sum(preds []int) int {
	total := 0
	for _, p := range preds {
		total += p
	}
	return total
}
